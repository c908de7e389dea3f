package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rwchcd/rwchcd/internal/model"
	"github.com/rwchcd/rwchcd/internal/numeric"
)

// snapshotVersion guards the wire format; bump and add a migration branch
// in decode if the field set below changes.
const snapshotVersion uint8 = 1

// HCircuitSnapshot is the subset of a circuit's runtime worth surviving a
// restart: operator overrides and the boost-transition clock, not
// derived/transient fields like ambient model state (spec.md §4.4, §4.7).
type HCircuitSnapshot struct {
	RunModeOverride model.RunMode
	TOffset         numeric.Delta
	TransStartTime  numeric.TimeTick
}

func EncodeHCircuit(s HCircuitSnapshot) []byte {
	var buf bytes.Buffer
	buf.WriteByte(snapshotVersion)
	writeString(&buf, string(s.RunModeOverride))
	binary.Write(&buf, binary.BigEndian, int64(s.TOffset))
	binary.Write(&buf, binary.BigEndian, int64(s.TransStartTime))
	return buf.Bytes()
}

func DecodeHCircuit(data []byte) (HCircuitSnapshot, error) {
	var s HCircuitSnapshot
	r := bytes.NewReader(data)
	ver, err := r.ReadByte()
	if err != nil {
		return s, fmt.Errorf("decode hcircuit snapshot: %w", err)
	}
	if ver != snapshotVersion {
		return s, fmt.Errorf("decode hcircuit snapshot: unsupported version %d", ver)
	}
	mode, err := readString(r)
	if err != nil {
		return s, err
	}
	s.RunModeOverride = model.RunMode(mode)
	var toffset, trans int64
	if err := binary.Read(r, binary.BigEndian, &toffset); err != nil {
		return s, err
	}
	if err := binary.Read(r, binary.BigEndian, &trans); err != nil {
		return s, err
	}
	s.TOffset = numeric.Delta(toffset)
	s.TransStartTime = numeric.TimeTick(trans)
	return s, nil
}

// DHWTSnapshot is the subset of a DHWT's runtime worth surviving a
// restart: the force-on/legionella latches and the once-per-calendar-day
// force charge marker (spec.md §4.5).
type DHWTSnapshot struct {
	RunModeOverride model.RunMode
	ForceOn         bool
	LegionellaOn    bool
	ChargeYday      int32
}

func EncodeDHWT(s DHWTSnapshot) []byte {
	var buf bytes.Buffer
	buf.WriteByte(snapshotVersion)
	writeString(&buf, string(s.RunModeOverride))
	writeBool(&buf, s.ForceOn)
	writeBool(&buf, s.LegionellaOn)
	binary.Write(&buf, binary.BigEndian, s.ChargeYday)
	return buf.Bytes()
}

func DecodeDHWT(data []byte) (DHWTSnapshot, error) {
	var s DHWTSnapshot
	r := bytes.NewReader(data)
	ver, err := r.ReadByte()
	if err != nil {
		return s, fmt.Errorf("decode dhwt snapshot: %w", err)
	}
	if ver != snapshotVersion {
		return s, fmt.Errorf("decode dhwt snapshot: unsupported version %d", ver)
	}
	mode, err := readString(r)
	if err != nil {
		return s, err
	}
	s.RunModeOverride = model.RunMode(mode)
	if s.ForceOn, err = readBool(r); err != nil {
		return s, err
	}
	if s.LegionellaOn, err = readBool(r); err != nil {
		return s, err
	}
	if err := binary.Read(r, binary.BigEndian, &s.ChargeYday); err != nil {
		return s, err
	}
	return s, nil
}

// BoilerSnapshot carries the turn-on anticipation adjustment learned
// over prior cycles (spec.md §4.6); losing it on restart is safe but
// degrades anticipation accuracy until it re-learns.
type BoilerSnapshot struct {
	TurnOnCurrAdj numeric.TimeTick
}

func EncodeBoiler(s BoilerSnapshot) []byte {
	var buf bytes.Buffer
	buf.WriteByte(snapshotVersion)
	binary.Write(&buf, binary.BigEndian, int64(s.TurnOnCurrAdj))
	return buf.Bytes()
}

func DecodeBoiler(data []byte) (BoilerSnapshot, error) {
	var s BoilerSnapshot
	r := bytes.NewReader(data)
	ver, err := r.ReadByte()
	if err != nil {
		return s, fmt.Errorf("decode boiler snapshot: %w", err)
	}
	if ver != snapshotVersion {
		return s, fmt.Errorf("decode boiler snapshot: unsupported version %d", ver)
	}
	var adj int64
	if err := binary.Read(r, binary.BigEndian, &adj); err != nil {
		return s, err
	}
	s.TurnOnCurrAdj = numeric.TimeTick(adj)
	return s, nil
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil {
		return "", fmt.Errorf("read string body: %w", err)
	}
	return string(b), nil
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, fmt.Errorf("read bool: %w", err)
	}
	return b != 0, nil
}
