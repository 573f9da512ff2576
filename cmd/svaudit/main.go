// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The svaudit command allows the modernc.org/kv-backed row stores that
// svmerge -work leaves behind to be inspected after a run completes:
// one store per loaded sample table and one for the running merged
// table. The side list kept when expand is off is folded into the
// merged table and its own store removed. Output is a JSON
// stream on stdout, one object per row, in canonical-key order.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"modernc.org/kv"

	"github.com/czakarian/svpop/internal/svstore"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("svaudit: ")

	path := flag.String("db", "", "path to a .kv store left by svmerge -work")
	flag.Parse()
	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	db, err := kv.Open(*path, &kv.Options{Compare: svstore.CompareCanonical})
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	it, err := db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return
		}
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	for {
		k, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			log.Fatal(err)
		}
		key := svstore.DecodeCanonicalKey(k)

		var row map[string]interface{}
		if err := json.Unmarshal(v, &row); err != nil {
			log.Fatal(fmt.Errorf("unmarshal row for id %q: %w", key.ID, err))
		}
		row["_key"] = key
		if err := enc.Encode(row); err != nil {
			log.Fatal(err)
		}
	}
}
