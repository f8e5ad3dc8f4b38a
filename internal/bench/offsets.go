package bench

import "math/rand"

// offsetSeq is a restartable stream of file offsets. Each worker owns one
// exclusively, so drawing the next offset never contends across threads.
type offsetSeq interface {
	next() int64
}

// seqOffsets advances by one buffer length per draw and wraps to zero past
// maxOffset. The cursor starts at fileSize so the first draw lands on zero.
type seqOffsets struct {
	cur  int64
	step int64
	max  int64
}

func newSeqOffsets(fileSize, bufferSize int64) *seqOffsets {
	return &seqOffsets{cur: fileSize, step: bufferSize, max: fileSize - bufferSize}
}

func (s *seqOffsets) next() int64 {
	s.cur += s.step
	if s.cur > s.max {
		s.cur = 0
	}
	return s.cur
}

// randOffsets draws uniformly from [0, fileSize-bufferSize). The generator
// is seeded independently per worker.
type randOffsets struct {
	rnd *rand.Rand
	max int64
}

func newRandOffsets(fileSize, bufferSize, seed int64) *randOffsets {
	return &randOffsets{rnd: rand.New(rand.NewSource(seed)), max: fileSize - bufferSize}
}

func (r *randOffsets) next() int64 {
	if r.max <= 0 {
		return 0
	}
	return r.rnd.Int63n(r.max)
}

func newOffsetSeq(p *Params, workerIndex int, seed int64) offsetSeq {
	if p.ReadRandom {
		return newRandOffsets(p.FileSize, p.BufferSize, seed+int64(workerIndex))
	}
	return newSeqOffsets(p.FileSize, p.BufferSize)
}
