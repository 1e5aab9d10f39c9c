package main

import (
	"bufio"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	_ "modernc.org/sqlite"

	"semantra.io/internal/words"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "sessions":
			sessionsCmd(os.Args[2:])
			return
		case "session":
			sessionCmd(os.Args[2:])
			return
		case "seed-words":
			seedWordsCmd(os.Args[2:])
			return
		case "journal":
			journalCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin <sessions|session|seed-words|journal> [flags]")
	os.Exit(2)
}

func openDB(path string) *sql.DB {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	return db
}

func sessionsCmd(args []string) {
	fs := flag.NewFlagSet("sessions", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	db := openDB(filepath.Join(*dataDir, "sessions.sqlite"))
	defer db.Close()

	rows, err := db.Query(`SELECT code, version, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()
	for rows.Next() {
		var code, updated string
		var version int64
		if err := rows.Scan(&code, &version, &updated); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		fmt.Printf("%s\tv%d\t%s\n", code, version, updated)
	}
}

func sessionCmd(args []string) {
	fs := flag.NewFlagSet("session", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	code := fs.String("code", "", "room code (required)")
	_ = fs.Parse(args)
	if strings.TrimSpace(*code) == "" {
		fmt.Fprintln(os.Stderr, "missing -code")
		os.Exit(2)
	}

	db := openDB(filepath.Join(*dataDir, "sessions.sqlite"))
	defer db.Close()

	var doc string
	if err := db.QueryRow(`SELECT doc FROM sessions WHERE code=?`, *code).Scan(&doc); err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		os.Exit(1)
	}
	fmt.Println(doc)
}

func seedWordsCmd(args []string) {
	fs := flag.NewFlagSet("seed-words", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "words db path (default: <data>/words.sqlite)")
	from := fs.String("from", "./configs/words.yaml", "yaml word set to load")
	_ = fs.Parse(args)

	set, err := words.LoadFile(*from)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load words:", err)
		os.Exit(1)
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "words.sqlite")
	}
	db := openDB(path)
	defer db.Close()
	if err := words.EnsureSchema(db); err != nil {
		fmt.Fprintln(os.Stderr, "schema:", err)
		os.Exit(1)
	}
	if err := words.Seed(db, set); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
	fmt.Printf("seeded %d words into %s\n", len(set), path)
}

func journalCmd(args []string) {
	fs := flag.NewFlagSet("journal", flag.ExitOnError)
	file := fs.String("file", "", "journal file (.jsonl.zst, required)")
	_ = fs.Parse(args)
	if strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		os.Exit(2)
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "zstd:", err)
		os.Exit(1)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		fmt.Println(sc.Text())
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
}
