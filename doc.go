// Package zread provides transparent decompressed reading of files whose
// format is not known in advance.
//
// A Stream detects the format from the leading magic bytes when it is
// opened and then hands out decoded bytes for any requested length. Plain
// files pass through untouched.
//
// # Formats
//
//   - gzip, including files made of several concatenated members
//   - bzip2
//   - xz, including concatenated streams
//   - anything else is read as-is
//
// # Quick Start
//
//	s, err := zread.Open("access.log.gz")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	buf := make([]byte, 64*1024)
//	for !s.AtEnd() {
//	    n, _ := s.Read(buf)
//	    os.Stdout.Write(buf[:n])
//	}
//
// # Buffering
//
// Every read from the underlying file is done in blocks of Config.BulkSize
// bytes, whatever the caller asks for. Compressed input is staged in one
// arena and decoded output in another, each twice the bulk size. Requests
// larger than two bulks are decoded straight into the caller's slice;
// smaller ones go through the output arena.
//
// # End of stream
//
// Read returns fewer bytes than requested only when the stream reaches its
// terminal state, after which AtEnd reports true and Read returns io.EOF.
// A stream cut short by corrupt or truncated input reaches the same state;
// Err tells the two apart.
//
// A Stream must not be used from more than one goroutine at a time.
// Independent streams share nothing.
package zread
