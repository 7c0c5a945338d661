package cpu

// executeCB runs one CB-prefixed opcode. The encoding splits cleanly
// into a 2-bit group selector (bits 6-7), a 3-bit sub-operation or bit
// index (bits 3-5), and the 3-bit operand register (bits 0-2) in the
// same {B,C,D,E,H,L,(HL),A} order as the unprefixed table.
func (c *CPU) executeCB(op byte) {
	group := op >> 6
	sub := (op >> 3) & 7
	r := op & 7

	switch group {
	case 0: // rotate/shift
		v := c.rotateShift(sub, c.reg8(r))
		c.setReg8(r, v)
	case 1: // BIT sub,r — reads only, never writes back
		v := c.reg8(r)
		c.setFlag(flagZ, v&(1<<sub) == 0)
		c.setFlag(flagN, false)
		c.setFlag(flagH, true)
	case 2: // RES sub,r
		c.setReg8(r, c.reg8(r)&^(1<<sub))
	default: // SET sub,r
		c.setReg8(r, c.reg8(r)|(1<<sub))
	}
}

func (c *CPU) rotateShift(sub byte, v byte) byte {
	switch sub {
	case 0:
		return c.rlc(v)
	case 1:
		return c.rrc(v)
	case 2:
		return c.rl(v)
	case 3:
		return c.rr(v)
	case 4:
		return c.sla(v)
	case 5:
		return c.sra(v)
	case 6:
		return c.swap(v)
	default:
		return c.srl(v)
	}
}
