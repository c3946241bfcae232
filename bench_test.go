package blueprint_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/reoring/blueprint/source"
)

var benchData = []byte(`{
  "title": "Hello",
  "tags": "a, b, c",
  "count": 3,
  "header": {"published": true, "author": {"name": "Ann"}},
  "links": [{"url": "https://example.com"}, {"url": "https://example.org"}]
}`)

func Benchmark_DecodeFilterValidate_Small(b *testing.B) {
	ctx := context.Background()
	bp := articleBlueprint()
	if _, err := bp.Index(); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(benchData)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, err := source.DecodeData(bytes.NewReader(benchData), source.FormatJSON)
		if err != nil {
			b.Fatal(err)
		}
		clean, err := bp.Filter(ctx, data)
		if err != nil {
			b.Fatal(err)
		}
		if err := bp.Validate(ctx, clean); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Validate_Small(b *testing.B) {
	ctx := context.Background()
	bp := articleBlueprint()
	data, err := source.DecodeData(bytes.NewReader(benchData), source.FormatJSON)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := bp.Validate(ctx, data); err != nil {
			b.Fatal(err)
		}
	}
}
