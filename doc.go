/*

Package blsloader keeps a local SQLite copy of time series published as text
files by the U.S. Bureau of Labor Statistics under
https://download.bls.gov/pub/time.series/.

Every run fetches each configured source file, parses it line by line against
a fixed layout, decodes series identifiers into their positional fields and
upserts the rows: new keys are inserted, revised observations are updated in
place and unchanged ones are left alone. Running twice over the same files
leaves the database as it was.

Getting started

The contrib/handlers package has handlers for the CPI-U (cu) survey.

	package main

	import (
		"context"
		"os"

		"go.nownabe.dev/blsloader"
		"go.nownabe.dev/blsloader/contrib/handlers"
	)

	func main() {
		ctx := context.Background()

		loader, err := blsloader.New(
			blsloader.WithLogLevel("info"),
			blsloader.WithUserAgent("example.com data team ops@example.com"),
		)
		if err != nil {
			panic(err)
		}
		for _, h := range handlers.CU(handlers.BaseURL, nil) {
			loader.MustAddHandler(ctx, h)
		}

		db, err := blsloader.OpenSQLite(ctx, blsloader.SQLiteConfig{Path: "cpi-u.db"})
		if err != nil {
			panic(err)
		}
		defer db.Close()

		if _, err := loader.Run(ctx, db); err != nil {
			os.Exit(1)
		}
	}

Bad lines

A line that does not fit the layout (wrong number of fields, malformed series
identifier, unparsable number) is skipped, logged and counted in
Result.Rejected; the rest of the file is loaded. Set Handler.Strict to abort
the file instead. Each file is loaded in one transaction, so a file either
lands completely or not at all.

*/
package blsloader
