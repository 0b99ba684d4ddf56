package recognizer

import (
	"encoding/binary"
	"testing"
)

func pcmOf(amp int, samples int) []byte {
	buf := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(amp)))
	}
	return buf
}

func newMockRec(t *testing.T) Recognizer {
	t.Helper()
	engine := NewMockEngine(MockConfig{Text: "ek do teen", WordSamples: 1000, HangoverSamples: 800})
	rec, err := engine.NewRecognizer()
	if err != nil {
		t.Fatalf("new recognizer: %v", err)
	}
	return rec
}

func feed(t *testing.T, rec Recognizer, pcm []byte) bool {
	t.Helper()
	endpoint, err := rec.AcceptWaveform(pcm)
	if err != nil {
		t.Fatalf("accept waveform: %v", err)
	}
	return endpoint
}

func TestMockEndpointAfterTrailingSilence(t *testing.T) {
	rec := newMockRec(t)

	if feed(t, rec, pcmOf(3000, 2000)) {
		t.Fatal("unexpected endpoint during speech")
	}
	partial, err := rec.PartialResult()
	if err != nil {
		t.Fatalf("partial result: %v", err)
	}
	if partial != "ek do" {
		t.Fatalf("expected partial %q, got %q", "ek do", partial)
	}

	if !feed(t, rec, pcmOf(0, 800)) {
		t.Fatal("expected endpoint after trailing silence")
	}
	text, err := rec.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if text != "ek do" {
		t.Fatalf("expected committed %q, got %q", "ek do", text)
	}

	if feed(t, rec, pcmOf(0, 800)) {
		t.Fatal("silence after an endpoint must not fire again")
	}
}

func TestMockSilenceOnlyYieldsNothing(t *testing.T) {
	rec := newMockRec(t)
	if feed(t, rec, pcmOf(0, 4000)) {
		t.Fatal("unexpected endpoint on silence")
	}
	text, err := rec.FinalResult()
	if err != nil {
		t.Fatalf("final result: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty flush, got %q", text)
	}
}

func TestMockFlushWithoutEndpoint(t *testing.T) {
	rec := newMockRec(t)
	feed(t, rec, pcmOf(3000, 2000))
	text, err := rec.FinalResult()
	if err != nil {
		t.Fatalf("final result: %v", err)
	}
	if text != "ek do" {
		t.Fatalf("expected flushed %q, got %q", "ek do", text)
	}
	// flush resets the utterance
	text, err = rec.FinalResult()
	if err != nil {
		t.Fatalf("final result: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty second flush, got %q", text)
	}
}

func TestMockPartialGrowsWithSpeech(t *testing.T) {
	rec := newMockRec(t)
	want := []string{"ek", "ek do", "ek do teen", "ek do teen"}
	for i, expected := range want {
		feed(t, rec, pcmOf(3000, 1000))
		partial, err := rec.PartialResult()
		if err != nil {
			t.Fatalf("partial result: %v", err)
		}
		if partial != expected {
			t.Fatalf("step %d: expected partial %q, got %q", i, expected, partial)
		}
	}
}

func TestMockChunkSizeInvariance(t *testing.T) {
	var stream []byte
	stream = append(stream, pcmOf(3000, 2000)...)
	stream = append(stream, pcmOf(0, 800)...)
	stream = append(stream, pcmOf(3000, 1000)...)
	stream = append(stream, pcmOf(0, 800)...)

	collect := func(chunkSamples int) []string {
		rec := newMockRec(t)
		chunkBytes := chunkSamples * 2
		var finals []string
		for off := 0; off < len(stream); off += chunkBytes {
			end := off + chunkBytes
			if end > len(stream) {
				end = len(stream)
			}
			if feed(t, rec, stream[off:end]) {
				text, err := rec.Result()
				if err != nil {
					t.Fatalf("result: %v", err)
				}
				if text != "" {
					finals = append(finals, text)
				}
			}
		}
		if text, err := rec.FinalResult(); err != nil {
			t.Fatalf("final result: %v", err)
		} else if text != "" {
			finals = append(finals, text)
		}
		return finals
	}

	small := collect(400)
	large := collect(3200)
	if len(small) != 2 || small[0] != "ek do" || small[1] != "ek" {
		t.Fatalf("unexpected finals for small chunks: %v", small)
	}
	if len(large) != len(small) {
		t.Fatalf("chunk size changed final count: %v vs %v", small, large)
	}
	for i := range small {
		if small[i] != large[i] {
			t.Fatalf("chunk size changed finals: %v vs %v", small, large)
		}
	}
}
