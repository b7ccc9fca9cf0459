// Command nimbusdb is a small CLI demonstrating the query subsystem over
// a BadgerDB-backed store: seed demo data, run a handful of Queryable
// chains, and print the results as markdown tables.
//
// Grounded on the teacher's cmd/datalog/main.go (flag parsing, a demo
// mode that seeds data and runs canned queries when the database is
// freshly created, an interactive REPL otherwise) and
// datalog/executor/table_formatter.go for result rendering.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	nimbusdb "github.com/nimbusdb/nimbusdb"
	"github.com/nimbusdb/nimbusdb/executor"
	"github.com/nimbusdb/nimbusdb/overlay"
	"github.com/nimbusdb/nimbusdb/query"
	"github.com/nimbusdb/nimbusdb/storage"
)

type noOverlay struct{}

func (noOverlay) View(collection string) *overlay.View { return overlay.New().View(collection) }

func main() {
	var dbPath string
	var interactive bool

	flag.StringVar(&dbPath, "db", "nimbusdb.db", "database path")
	flag.BoolVar(&interactive, "i", false, "interactive mode (re-run the demo queries on an existing database)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "A query-subsystem demo over an embedded single-file document store.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	store, err := storage.NewBadgerStore(dbPath)
	if err != nil {
		color.Red("failed to open database: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	empty := isEmpty(store)
	if empty {
		color.Green("database is empty, loading demo data...")
		seedDemo(store)
	}

	runDemoQueries(store)

	if interactive {
		runInteractive(store)
	}
}

func isEmpty(store *storage.BadgerStore) bool {
	it, err := store.Scan(context.Background(), "people")
	if err != nil {
		return true
	}
	defer it.Close()
	return !it.Next(context.Background())
}

func seedDemo(store *storage.BadgerStore) {
	people := []map[string]query.Value{
		{"_id": "1", "name": "Alice", "age": int64(30), "city": "New York"},
		{"_id": "2", "name": "Bob", "age": int64(25), "city": "Boston"},
		{"_id": "3", "name": "Charlie", "age": int64(35), "city": "New York"},
	}
	for _, p := range people {
		if err := store.Put("people", p); err != nil {
			color.Red("seed error: %v", err)
		}
	}
	if err := store.CreateIndex("people", "by_city", []string{"city"}, false); err != nil {
		color.Red("index error: %v", err)
	}
}

func runDemoQueries(store *storage.BadgerStore) {
	exec := executor.New(store, store, store)
	ctx := context.Background()

	color.Cyan("\n=== All people ===")
	runAndPrint(ctx, exec, "people", nil)

	color.Cyan("\n=== People in New York ===")
	runAndPrint(ctx, exec, "people", func(q *nimbusdb.Queryable) *nimbusdb.Queryable {
		return q.Where(query.Eq(query.Field("city"), query.Val("New York")))
	})

	color.Cyan("\n=== People over 28, oldest first ===")
	runAndPrint(ctx, exec, "people", func(q *nimbusdb.Queryable) *nimbusdb.Queryable {
		return q.Where(query.Gt(query.Field("age"), query.Val(int64(28)))).OrderByDescending(query.Field("age"))
	})
}

func runAndPrint(ctx context.Context, exec *executor.Executor, collection string, chain func(*nimbusdb.Queryable) *nimbusdb.Queryable) {
	q, err := nimbusdb.New(exec, collection, noOverlay{})
	if err != nil {
		color.Red("error: %v", err)
		return
	}
	if chain != nil {
		q = chain(q)
	}
	report, rows, err := q.Explain(ctx)
	if err != nil {
		color.Red("query error: %v", err)
		return
	}
	executor.PrintDocuments(rows)
	color.Yellow("strategy: %s  index: %q\n", report.Strategy, report.IndexName)
}

func runInteractive(store *storage.BadgerStore) {
	color.Cyan("\n=== nimbusdb interactive mode ===")
	fmt.Println("Commands: .exit to quit, anything else re-runs the demo queries.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == ".exit" {
			return
		}
		runDemoQueries(store)
	}
}
