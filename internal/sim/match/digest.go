package match

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Digest hashes the full simulation state, including the fields Serialize
// leaves out, so replays can detect any divergence.
func (c *Controller) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	writeI64(h, &tmp, int64(c.turn))
	writeI64(h, &tmp, int64(c.phase))
	writeI64(h, &tmp, int64(c.outcome.Status))
	writeI64(h, &tmp, int64(c.outcome.Winner))
	if c.arena != nil {
		writeI64(h, &tmp, int64(c.arena.Clock()))
	}
	for _, ag := range c.Agents() {
		h.Write([]byte(ag.Name))
		h.Write([]byte{0, ag.Glyph, boolByte(ag.Alive), boolByte(ag.Damaged)})
		writeI64(h, &tmp, int64(ag.X))
		writeI64(h, &tmp, int64(ag.Y))
		writeI64(h, &tmp, int64(ag.Facing))
		writeI64(h, &tmp, int64(ag.HP))
		writeI64(h, &tmp, int64(ag.LastHP))
		writeI64(h, &tmp, int64(ag.ScanDist))
		writeI64(h, &tmp, int64(ag.ScanDir))
		writeI64(h, &tmp, int64(ag.Cooldown))
		writeI64(h, &tmp, int64(ag.Signal))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeI64(h hash.Hash, tmp *[8]byte, v int64) {
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	h.Write(tmp[:])
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
