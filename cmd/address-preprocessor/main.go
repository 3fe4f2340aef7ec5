// address-preprocessor rewrites the origin and destination columns of a
// telematics trips CSV into libpostal-normalised form before import.
// It is a separate binary so the main reconciler stays free of the cgo
// dependency.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	postal "github.com/openvenues/gopostal/parser"
)

const version = "1.0.0"

// Column positions in the telematics export.
const (
	colOrigin      = 4
	colDestination = 5
)

func main() {
	var (
		command = flag.String("cmd", "", "Command: preprocess, test-parse")
		address = flag.String("address", "", "Single address to test parsing")
		input   = flag.String("in", "", "Trips CSV to preprocess")
		output  = flag.String("out", "", "Destination for the cleaned CSV (default: stdout)")
	)
	flag.Parse()

	if *command == "" {
		printUsage()
		return
	}

	fmt.Fprintf(os.Stderr, "Trip Address Pre-processor v%s\n\n", version)

	var err error
	switch *command {
	case "test-parse":
		if *address == "" {
			fmt.Println("Error: -address required for test-parse")
			return
		}
		testParse(*address)
	case "preprocess":
		if *input == "" {
			fmt.Println("Error: -in required for preprocess")
			return
		}
		err = preprocess(*input, *output)
	default:
		fmt.Printf("Unknown command: %s\n", *command)
		printUsage()
	}

	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  Test libpostal parsing of one address:")
	fmt.Println("    ./address-preprocessor -cmd=test-parse -address=\"Unit 2, 123 Main St, Wattle Grove NSW 2173\"")
	fmt.Println()
	fmt.Println("  Clean the address columns of a trips export:")
	fmt.Println("    ./address-preprocessor -cmd=preprocess -in=trips.csv -out=trips-clean.csv")
}

func testParse(address string) {
	fmt.Printf("Input: %s\n\n", address)

	components := postal.ParseAddress(address)
	for _, component := range components {
		fmt.Printf("   %-15s: %s\n", component.Label, component.Value)
	}

	fmt.Printf("\nNormalised: %s\n", normalise(address))
}

// preprocess streams the CSV through, rewriting only the two address
// columns. The header row and any malformed rows pass through
// untouched.
func preprocess(inputPath, outputPath string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	var out io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	writer := csv.NewWriter(out)

	rows, cleaned := 0, 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row %d: %w", rows+1, err)
		}

		if rows > 0 && len(record) > colDestination {
			record[colOrigin] = normalise(record[colOrigin])
			record[colDestination] = normalise(record[colDestination])
			cleaned++
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", rows+1, err)
		}
		rows++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Cleaned %d of %d rows\n", cleaned, rows)
	return nil
}

// normalise rebuilds an address from its libpostal components in a
// fixed order, dropping units, levels and country noise.
func normalise(address string) string {
	components := postal.ParseAddress(address)
	if len(components) == 0 {
		return address
	}

	extracted := make(map[string]string)
	for _, comp := range components {
		extracted[comp.Label] = comp.Value
	}

	parts := make([]string, 0, 5)
	for _, label := range []string{"house", "house_number", "road", "suburb", "city", "postcode"} {
		if v := extracted[label]; v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return address
	}
	return strings.Join(parts, " ")
}
