package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/simonkvalheim/pix-ledger/internal/model"
	"github.com/simonkvalheim/pix-ledger/internal/repository"
)

// Initialize builds the process-wide ledger. When seedFile is set, the
// accounts it lists are opened in order before the ledger is returned.
func Initialize(seedFile string, log *slog.Logger) (*repository.Ledger, error) {
	ledger := repository.NewLedger()

	if seedFile == "" {
		log.Info("ledger initialized empty")
		return ledger, nil
	}

	seeds, err := loadSeeds(seedFile)
	if err != nil {
		return nil, err
	}

	for i, req := range seeds {
		account, err := ledger.OpenAccount(req)
		if err != nil {
			return nil, fmt.Errorf("failed to open seed account %d: %w", i, err)
		}
		log.Debug("seed account opened", "id", account.ID, "kind", account.Kind)
	}

	log.Info("ledger initialized from seed file", "path", seedFile, "accounts", ledger.Count())
	return ledger, nil
}

func loadSeeds(path string) ([]model.OpenAccountRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seeds []model.OpenAccountRequest
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return seeds, nil
}
