package cpu

// Memory is the capability every CPU and LCD access goes through. The backing
// storage belongs to whoever implements it; callers never keep a reference
// past the call they were handed it in.
type Memory interface {
	Read(address uint16) uint8
	Write(value uint8, address uint16)
}

// Interrupt registers.
const (
	InterruptFlagAddress   uint16 = 0xFF0F // IF
	InterruptEnableAddress uint16 = 0xFFFF // IE
)

// Interrupt is a bit in the IF/IE registers, lowest bit highest priority.
type Interrupt uint8

const (
	InterruptVBlank  Interrupt = 1 << 0
	InterruptLCDStat Interrupt = 1 << 1
	InterruptTimer   Interrupt = 1 << 2
	InterruptSerial  Interrupt = 1 << 3
	InterruptJoypad  Interrupt = 1 << 4

	interruptMask = 0x1F
)

// RequestInterrupt ORs i into the interrupt flag byte. Every interrupt source
// signals this way, through the memory interface, rather than calling into
// the CPU.
func RequestInterrupt(mem Memory, i Interrupt) {
	mem.Write(mem.Read(InterruptFlagAddress)|uint8(i), InterruptFlagAddress)
}

// vector returns the handler address for a single interrupt bit.
func (i Interrupt) vector() uint16 {
	v := uint16(0x40)
	for b := i; b > 1; b >>= 1 {
		v += 8
	}
	return v
}

// pendingInterrupts returns the enabled and requested interrupt bits.
func pendingInterrupts(mem Memory) uint8 {
	return mem.Read(InterruptEnableAddress) & mem.Read(InterruptFlagAddress) & interruptMask
}
