package main

import (
	"flag"
	"log"
	"os"

	"ytcbow/config"
	"ytcbow/embedding"
	"ytcbow/vocab"

	"github.com/joho/godotenv"
)

func main() {
	weightsPath := flag.String("weights", "models/cbow/embedding.tsv", "Embedding matrix, one whitespace-separated row per vocabulary index")
	vectorsPath := flag.String("vectors", "vectors.tsv", "Output vectors file")
	metadataPath := flag.String("metadata", "metadata.tsv", "Output metadata file")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	v, err := vocab.Load(cfg.WordFreqPath, cfg.MinCount)
	if err != nil {
		log.Fatalf("Failed to build vocabulary: %v", err)
	}

	wf, err := os.Open(*weightsPath)
	if err != nil {
		log.Fatal(err)
	}
	weights, err := embedding.LoadWeights(wf)
	wf.Close()
	if err != nil {
		log.Fatalf("Failed to read weights: %v", err)
	}
	log.Printf("Weights: %d rows", len(weights))

	vectors, err := os.Create(*vectorsPath)
	if err != nil {
		log.Fatal(err)
	}
	defer vectors.Close()
	metadata, err := os.Create(*metadataPath)
	if err != nil {
		log.Fatal(err)
	}
	defer metadata.Close()

	n, err := embedding.Export(v, weights, vectors, metadata)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	log.Printf("Exported %d words to %s and %s", n, *vectorsPath, *metadataPath)
}
