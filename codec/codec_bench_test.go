package codec

import (
	"fmt"
	"testing"
)

type benchRow struct {
	Key  int `json:"key"`
	Sub  int `json:"sub"`
	Code int `json:"code"`
}

type benchTables struct {
	Keys []string          `json:"keys"`
	Enum map[string]int    `json:"enum"`
	Rows []benchRow        `json:"rows"`
	Meta map[string]string `json:"meta"`
}

func benchTablesPayload() benchTables {
	p := benchTables{
		Enum: map[string]int{"maj": 0, "min": 1, "dim": 2, "aug": 3},
		Meta: map[string]string{
			"version": "1",
			"codec":   "go-json",
		},
	}
	for i := 0; i < 256; i++ {
		p.Keys = append(p.Keys, fmt.Sprintf("takes/%04d", i))
		p.Rows = append(p.Rows, benchRow{Key: i, Sub: -1, Code: i % 4})
	}
	return p
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal[T any](b *testing.B, c Codec, data []byte) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v T
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCodec_Marshal_Tables(b *testing.B) {
	payload := benchTablesPayload()

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, payload) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, payload) })
}

func BenchmarkCodec_Unmarshal_Tables(b *testing.B) {
	data := MustMarshal(JSON{}, benchTablesPayload())

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecUnmarshal[benchTables](b, JSON{}, data) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecUnmarshal[benchTables](b, GoJSON{}, data) })
}
