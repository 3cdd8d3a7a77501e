package bytecode

import "github.com/averagestudentdontfail/Ourochronos/program"

// opFor maps an AST opcode to its direct bytecode encoding. EQ, LT, GT
// encode directly; NEQ, LTE, GTE have no dedicated byte and are lowered
// to a three-instruction sequence by compileOp.
var opFor = map[program.Opcode]Op{
	program.NOP:   OpNOP,
	program.HALT:  OpHALT,
	program.PARADOX: OpPARADOX,

	program.POP:   OpDROP,
	program.DUP:   OpDUP,
	program.SWAP:  OpSWAP,
	program.OVER:  OpOVER,
	program.ROT:   OpROT,
	program.DEPTH: OpDEPTH,

	program.PRESENT:  OpP_READ,
	program.PROPHECY: OpP_WRITE,
	program.ORACLE:   OpA_READ,

	program.ADD:  OpADD,
	program.SUB:  OpSUB,
	program.MUL:  OpMUL,
	program.DIV:  OpDIV,
	program.MOD:  OpMOD,
	program.AND:  OpAND,
	program.OR:   OpOR,
	program.XOR:  OpXOR,
	program.NOT:  OpNOT,
	program.BNOT: OpBNOT,
	program.NEG:  OpNEG,

	program.EQ: OpEQ,
	program.LT: OpLT,
	program.GT: OpGT,

	program.INPUT:  OpINPUT,
	program.OUTPUT: OpOUTPUT,
}

// opTo maps a direct bytecode opcode back to its AST opcode.
var opTo = map[Op]program.Opcode{
	OpNOP: program.NOP, OpHALT: program.HALT, OpPARADOX: program.PARADOX,
	OpDROP: program.POP, OpDUP: program.DUP, OpSWAP: program.SWAP, OpOVER: program.OVER, OpROT: program.ROT,
	OpDEPTH: program.DEPTH,
	OpP_READ: program.PRESENT, OpP_WRITE: program.PROPHECY, OpA_READ: program.ORACLE,
	OpADD: program.ADD, OpSUB: program.SUB, OpMUL: program.MUL, OpDIV: program.DIV, OpMOD: program.MOD,
	OpAND: program.AND, OpOR: program.OR, OpXOR: program.XOR,
	OpNOT: program.NOT, OpBNOT: program.BNOT, OpNEG: program.NEG,
	OpEQ: program.EQ, OpLT: program.LT, OpGT: program.GT,
	OpINPUT: program.INPUT, OpOUTPUT: program.OUTPUT,
}
