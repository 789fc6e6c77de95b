package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Convertit le fichier texte brut de la DGFiP (cp1252, séparé par des
// barres verticales) en CSV UTF-8 ouvrable dans un tableur.
func main() {
	delimiter := flag.String("delimiter", ";", "séparateur du CSV généré (';' pour Excel en locale FR)")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <ValeursFoncieres.txt> <sortie.csv>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	if len(*delimiter) != 1 {
		log.Fatal("le séparateur doit être un caractère unique")
	}

	if err := convertFile(flag.Arg(0), flag.Arg(1), rune((*delimiter)[0])); err != nil {
		log.Fatalf("conversion impossible: %v", err)
	}
}

func convertFile(src, dest string, delimiter rune) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	// BOM UTF-8 pour qu'Excel détecte l'encodage
	if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	decoded := transform.NewReader(in, charmap.Windows1252.NewDecoder())
	reader := csv.NewReader(decoded)
	reader.Comma = '|'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	writer := csv.NewWriter(out)
	writer.Comma = delimiter

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
