// Command schema-generator writes the JSON Schemas of keyflow.yml and the
// groups file so editors can complete and check them.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/keyflow/config"
)

var outputs = []struct {
	file     string
	generate func() ([]byte, error)
}{
	{"keyflow.schema.json", config.GenerateSchema},
	{"groups.schema.json", config.GenerateGroupsSchema},
}

func main() {
	dir := flag.String("dir", "schema/definitions", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}
	for _, out := range outputs {
		data, err := out.generate()
		if err != nil {
			log.Fatalf("Error generating %s: %v", out.file, err)
		}
		path := filepath.Join(*dir, out.file)
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			log.Fatalf("Error writing %s: %v", path, err)
		}
		log.Printf("Generated %s", path)
	}
}
