package zread

import (
	"testing"
)

func benchmarkRead(b *testing.B, f Format, data []byte, bulk, readSize int) {
	mfs := NewMemFS()
	mfs.WriteFile("bench", compressBytes(b, f, data))
	config := &Config{BulkSize: bulk}
	p := make([]byte, readSize)

	b.ResetTimer()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		s, err := OpenFS(mfs, "bench", config)
		if err != nil {
			b.Fatalf("Failed to open: %v", err)
		}
		for !s.AtEnd() {
			s.Read(p)
		}
		s.Close()
	}
}

// Small reads go through the output arena
func BenchmarkRead_Transparent_4KB(b *testing.B) {
	benchmarkRead(b, Transparent, generateTestData(1<<20), 64*1024, 4096)
}

func BenchmarkRead_Gzip_4KB(b *testing.B) {
	benchmarkRead(b, Gzip, generateTestData(1<<20), 64*1024, 4096)
}

func BenchmarkRead_Bzip2_4KB(b *testing.B) {
	benchmarkRead(b, Bzip2, generateTestData(1<<20), 64*1024, 4096)
}

func BenchmarkRead_Xz_4KB(b *testing.B) {
	benchmarkRead(b, Xz, generateTestData(1<<20), 64*1024, 4096)
}

// Large reads decode straight into the caller's slice
func BenchmarkRead_Gzip_Bulk(b *testing.B) {
	benchmarkRead(b, Gzip, generateTestData(4<<20), 64*1024, 1<<20)
}

func BenchmarkRead_Xz_Bulk(b *testing.B) {
	benchmarkRead(b, Xz, generateTestData(4<<20), 64*1024, 1<<20)
}

func BenchmarkRead_Gzip_DefaultBulk(b *testing.B) {
	benchmarkRead(b, Gzip, generateHighlyCompressibleData(8<<20), DefaultBulkSize, 64*1024)
}

func BenchmarkRead_Gzip_Incompressible(b *testing.B) {
	benchmarkRead(b, Gzip, generateIncompressibleData(1<<20), 64*1024, 4096)
}

func BenchmarkDetect(b *testing.B) {
	head := compressBytes(b, Xz, []byte("x"))
	for i := 0; i < b.N; i++ {
		Detect(head)
	}
}
