// seed_usecases.go seeds processes and use cases from a YAML file through the Prioritizer API.
//
// Usage:
//
//	go run scripts/seed_usecases.go -file seed.yaml -api http://localhost:8700 -rate
//
// The file lists processes with their value weights and use cases with their
// item scores:
//
//	processes:
//	  - label: Procurement
//	    value_weights: {Time: 1, Cost: 2, Quality: 1, Flexibility: 0.5}
//	use_cases:
//	  - label: Invoice matching
//	    process: Procurement
//	    scores: {Goal1: 4, ...}
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Processes []seedProcess `yaml:"processes"`
	UseCases  []seedUseCase `yaml:"use_cases"`
}

type seedProcess struct {
	Label        string             `yaml:"label" json:"label"`
	ValueWeights map[string]float64 `yaml:"value_weights" json:"value_weights"`
}

type seedUseCase struct {
	Label       string             `yaml:"label" json:"label"`
	Description string             `yaml:"description" json:"description,omitempty"`
	Process     string             `yaml:"process" json:"-"`
	ProcessID   string             `yaml:"-" json:"process_id"`
	Scores      map[string]float64 `yaml:"scores" json:"scores"`
}

type created struct {
	ID string `json:"id"`
}

func main() {
	path := flag.String("file", "seed.yaml", "path to seed file")
	apiURL := flag.String("api", "http://localhost:8700", "Prioritizer API base URL")
	clientID := flag.String("client", "seed", "X-Client-ID header value")
	rate := flag.Bool("rate", false, "rate each use case after creating it")
	dryRun := flag.Bool("dry-run", false, "print items without posting")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read seed file: %v", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("parse seed file: %v", err)
	}

	log.Printf("parsed %d processes and %d use cases from %s", len(seed.Processes), len(seed.UseCases), *path)

	if *dryRun {
		for i, p := range seed.Processes {
			fmt.Printf("process [%d] %s (%d value weights)\n", i+1, p.Label, len(p.ValueWeights))
		}
		for i, uc := range seed.UseCases {
			fmt.Printf("use case [%d] %s (process=%s, %d scores)\n", i+1, uc.Label, uc.Process, len(uc.Scores))
		}
		return
	}

	client := &http.Client{}
	post := func(path string, body interface{}, out interface{}) (int, error) {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		req, err := http.NewRequest(http.MethodPost, *apiURL+path, bytes.NewReader(payload))
		if err != nil {
			return 0, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Client-ID", *clientID)

		resp, err := client.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()
		if out != nil && resp.StatusCode < 300 {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return resp.StatusCode, err
			}
		}
		return resp.StatusCode, nil
	}

	processIDs := make(map[string]string)
	for _, p := range seed.Processes {
		var c created
		status, err := post("/api/v1/processes", p, &c)
		if err != nil || status != http.StatusCreated {
			log.Printf("skip process %q: status %d: %v", p.Label, status, err)
			continue
		}
		processIDs[p.Label] = c.ID
	}

	createdCount, skipped, rated := 0, 0, 0
	for _, uc := range seed.UseCases {
		id, ok := processIDs[uc.Process]
		if !ok {
			log.Printf("skip %q: unknown process %q", uc.Label, uc.Process)
			skipped++
			continue
		}
		uc.ProcessID = id

		var c created
		status, err := post("/api/v1/usecases", uc, &c)
		if err != nil || status != http.StatusCreated {
			log.Printf("skip %q: status %d: %v", uc.Label, status, err)
			skipped++
			continue
		}
		createdCount++

		if !*rate {
			continue
		}
		status, err = post("/api/v1/usecases/"+c.ID+"/rate", nil, nil)
		if err != nil || status != http.StatusOK {
			log.Printf("rate %q: status %d: %v", uc.Label, status, err)
			continue
		}
		rated++
	}

	log.Printf("done: %d created, %d rated, %d skipped", createdCount, rated, skipped)
}
