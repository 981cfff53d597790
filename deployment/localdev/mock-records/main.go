package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

type serviceRecord struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Status                string  `json:"status"`
	Description           string  `json:"description"`
	ServiceURL            string  `json:"service_url"`
	LastIncidentTimestamp *string `json:"last_incident_timestamp"`
}

var statuses = []string{"active", "active", "active", "warning", "critical", "maintenance", "disabled"}

func sampleServices() []serviceRecord {
	return []serviceRecord{
		{ID: "PCHK01", Name: "Shop: Checkout", Status: "active", Description: "[dashboard-primary] [dashboard-depends|Payments API, inventory]", ServiceURL: "/services/PCHK01"},
		{ID: "PCRT02", Name: "Shop: Cart", Status: "active", Description: "[dashboard-primary] [dashboard-depends|Payments API]", ServiceURL: "/services/PCRT02"},
		{ID: "PSIT03", Name: "Shop: Site", Status: "active", Description: "[dashboard-primary]", ServiceURL: "/services/PSIT03"},
		{ID: "PSRV04", Name: "Shop: Server", Status: "active", Description: "[dashboard-primary] [dashboard-depends|postgres]", ServiceURL: "/services/PSRV04"},
		{ID: "PSRC05", Name: "Search: Query", Status: "active", Description: "[dashboard-primary] [dashboard-depends|elastic.*]", ServiceURL: "/services/PSRC05"},
		{ID: "PSRC06", Name: "Search: Server", Status: "active", Description: "[dashboard-primary]", ServiceURL: "/services/PSRC06"},
		{ID: "PPAY07", Name: "Payments API", Status: "active", Description: "Card processing", ServiceURL: "/services/PPAY07"},
		{ID: "PINV08", Name: "Inventory Sync", Status: "active", ServiceURL: "/services/PINV08"},
		{ID: "PPGS09", Name: "Postgres Primary", Status: "active", ServiceURL: "/services/PPGS09"},
		{ID: "PELS10", Name: "Elasticsearch", Status: "active", ServiceURL: "/services/PELS10"},
	}
}

func main() {
	var (
		path     string
		interval time.Duration
	)
	flag.StringVar(&path, "out", "services.json", "Records file to write")
	flag.DurationVar(&interval, "interval", 15*time.Second, "How often statuses are flipped")
	flag.Parse()

	logger := log.New(log.Writer(), "records-mock ", log.LstdFlags|log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services := sampleServices()
	if err := writeRecords(path, services); err != nil {
		logger.Fatalf("write records: %v", err)
	}
	logger.Printf("wrote %d services to %s", len(services), path)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Println("stopped")
			return
		case now := <-ticker.C:
			i := rng.Intn(len(services))
			flip(&services[i], statuses[rng.Intn(len(statuses))], now)
			if err := writeRecords(path, services); err != nil {
				logger.Printf("write records: %v", err)
				continue
			}
			logger.Printf("%s -> %s", services[i].Name, services[i].Status)
		}
	}
}

// flip sets a new status and stamps the incident time when the service goes down.
func flip(svc *serviceRecord, status string, now time.Time) {
	if svc.Status != "warning" && svc.Status != "critical" && (status == "warning" || status == "critical") {
		ts := now.UTC().Format(time.RFC3339)
		svc.LastIncidentTimestamp = &ts
	}
	svc.Status = status
}

// writeRecords replaces path atomically so readers never see a partial file.
func writeRecords(path string, services []serviceRecord) error {
	data, err := json.MarshalIndent(map[string]any{"services": services}, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".services-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
