// Command csvcorebench generates a synthetic CSV file and times how
// fast Reader streams it back, row by row, to measure realistic
// end-to-end read throughput (generation cost excluded from the timed
// section).
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/csvquery/csvcore"
)

func main() {
	sizeMB := 500
	if len(os.Args) >= 2 {
		if v, err := strconv.Atoi(os.Args[1]); err == nil {
			sizeMB = v
		}
	}

	fmt.Printf("Generating %d MB CSV...\n", sizeMB)
	tmpDir, err := os.MkdirTemp("", "csvcore_bench")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	csvPath := filepath.Join(tmpDir, "bench.csv")
	bytesWritten, rows, err := generate(csvPath, int64(sizeMB)*1024*1024)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Generated %d rows (%.2f MB)\n", rows, float64(bytesWritten)/1024/1024)

	fmt.Println("Starting read pass...")
	start := time.Now()

	rd, err := csvcore.Open(csvPath, csvcore.NewFormat())
	if err != nil {
		panic(err)
	}
	defer rd.Close()

	var n int64
	for {
		_, ok, err := rd.ReadRow()
		if err != nil {
			panic(err)
		}
		if !ok {
			break
		}
		n++
	}
	elapsed := time.Since(start)

	mbPerSec := float64(bytesWritten) / 1024 / 1024 / elapsed.Seconds()
	fmt.Printf("\n--------------------------------------------------\n")
	fmt.Printf("Rows read:  %d\n", n)
	fmt.Printf("Throughput: %.2f MB/s\n", mbPerSec)
	fmt.Printf("Time:       %v\n", elapsed)
	fmt.Printf("--------------------------------------------------\n")
}

// generate writes a synthetic id/code/value/description CSV at path
// until it reaches at least limit bytes, returning the actual byte and
// row counts.
func generate(path string, limit int64) (int64, int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 64*1024)
	if _, err := w.WriteString("id,code,value,description\n"); err != nil {
		return 0, 0, err
	}

	var bytesWritten int64
	rows := 0
	buf := make([]byte, 0, 1024)
	rng := rand.New(rand.NewSource(123))

	for bytesWritten < limit {
		rows++
		buf = buf[:0]
		buf = fmt.Appendf(buf, "%d,US-%d,%d,\"Description for item %d with some padding to make it longer\"\n",
			rows, rng.Intn(1000), rng.Intn(10000), rows)
		n, err := w.Write(buf)
		bytesWritten += int64(n)
		if err != nil {
			return bytesWritten, rows, err
		}
	}
	return bytesWritten, rows, w.Flush()
}
