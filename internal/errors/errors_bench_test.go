package errors

import (
	"fmt"
	"sync"
	"testing"
)

func BenchmarkCollector_Add(b *testing.B) {
	collector := NewCollector()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.Add(Problem{
			File:     fmt.Sprintf("template%d.rp", i%50),
			Line:     i,
			Column:   i % 80,
			Severity: SeverityError,
			Message:  fmt.Sprintf("Unavailable: Identifier \"user n%d\"", i),
		})
	}
}

func BenchmarkCollector_Problems(b *testing.B) {
	collector := NewCollector()
	for i := 0; i < 1000; i++ {
		collector.Add(Problem{
			File:     fmt.Sprintf("template%d.rp", i%50),
			Line:     1000 - i,
			Column:   i % 80,
			Severity: SeverityWarning,
			Message:  "warning",
		})
	}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_ = collector.Problems()
	}
}

func BenchmarkCollector_Concurrent(b *testing.B) {
	collector := NewCollector()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			collector.Add(Problem{File: "t.rp", Line: i, Severity: SeverityError})
			i++
		}
	})
}

func BenchmarkRockplateError_Error(b *testing.B) {
	err := NewIOError(ErrCodeReadFile, "failed to read template", fmt.Errorf("no such file")).
		WithLocation("letters/welcome.rp", 3, 7)

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_ = err.Error()
	}
}

func BenchmarkCollector_ByFile(b *testing.B) {
	collector := NewCollector()
	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				collector.Add(Problem{File: fmt.Sprintf("t%d.rp", w), Line: i})
			}
		}()
	}
	wg.Wait()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_ = collector.ByFile("t3.rp")
	}
}
