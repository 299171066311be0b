package generator

import "fmt"

// Sequence yields predictable identifiers for tests and previews.
type Sequence struct {
	macs    int
	uuids   int
	bridges int
}

func (s *Sequence) MAC() string {
	s.macs++
	return fmt.Sprintf("%s:00:00:%02x", MACPrefix, s.macs%256)
}

func (s *Sequence) UUID() string {
	s.uuids++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", s.uuids)
}

func (s *Sequence) BridgeName() string {
	s.bridges++
	return fmt.Sprintf("%s%d", BridgePrefix, s.bridges)
}

func NewSequence() *Sequence {
	return &Sequence{}
}
