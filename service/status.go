package service

import (
	"fmt"
	"os"
)

// GetStatus reports database and query statistics.
//
// This method handles all the business logic but does not interact with the user.
// The caller is responsible for formatting and displaying the result.
func (s *Service) GetStatus() (*StatusResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	counts, err := s.db.Stats()
	if err != nil {
		return nil, fmt.Errorf("failed to get database stats: %w", err)
	}
	version, err := s.db.SchemaVersion()
	if err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	sets, err := s.db.SetNames()
	if err != nil {
		return nil, fmt.Errorf("failed to list sets: %w", err)
	}

	result := &StatusResult{
		DatabasePath:  s.cfg.DatabasePath,
		SchemaVersion: version,
		Counts:        counts,
		Sets:          sets,
		Queries:       s.metrics.GetSnapshot(),
	}
	if fi, err := os.Stat(s.cfg.DatabasePath); err == nil {
		result.DatabaseSize = fi.Size()
	}
	return result, nil
}
