package service

import (
	"context"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/csvimport"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/dal"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/pubsub"
)

// ImportCounts summarizes a parse for the admin dialog
type ImportCounts struct {
	Valid     int `json:"valid"`
	Duplicate int `json:"duplicate"`
	Error     int `json:"error"`
}

// ImportPreview is a parse result with its counts. After a commit the valid
// matches carry their new ids.
type ImportPreview struct {
	csvimport.Result
	Counts ImportCounts `json:"counts"`
}

func (s *Service) parseUpload(ctx context.Context, fileName string, data []byte) (ImportPreview, error) {
	if fileName == "" {
		fileName = "upload.csv"
	}
	parser, err := s.parsers.GetParser(fileName)
	if err != nil {
		return ImportPreview{}, errs.Validation(err.Error())
	}

	existing, err := s.AllMatches(ctx)
	if err != nil {
		return ImportPreview{}, err
	}

	res, err := parser.Parse(data, existing)
	if err != nil {
		return ImportPreview{}, errs.Validation(err.Error())
	}
	return ImportPreview{
		Result: res,
		Counts: ImportCounts{
			Valid:     len(res.ValidMatches),
			Duplicate: res.DuplicateCount,
			Error:     len(res.Errors),
		},
	}, nil
}

// PreviewCSV parses an upload against the stored matches without saving.
// fileName picks the parser by extension; blank means CSV.
func (s *Service) PreviewCSV(ctx context.Context, fileName string, data []byte) (ImportPreview, error) {
	return s.parseUpload(ctx, fileName, data)
}

// CommitCSV parses the upload again against the current store and appends
// the valid matches under new ids. Rows with errors and duplicates are
// skipped, not fatal.
func (s *Service) CommitCSV(ctx context.Context, fileName string, data []byte) (ImportPreview, error) {
	if err := s.guard(); err != nil {
		return ImportPreview{}, err
	}
	preview, err := s.parseUpload(ctx, fileName, data)
	if err != nil {
		return ImportPreview{}, err
	}
	if len(preview.ValidMatches) == 0 {
		return preview, nil
	}

	for i := range preview.ValidMatches {
		preview.ValidMatches[i].ID = dal.NewMatchID()
	}

	manual, err := dal.LoadAll[models.Match](ctx, s.store, dal.CollectionMatches)
	if err != nil {
		return ImportPreview{}, err
	}
	if err := dal.ReplaceAll(ctx, s.store, dal.CollectionMatches, append(manual, preview.ValidMatches...)); err != nil {
		return ImportPreview{}, err
	}

	logger.Info("CSV import committed",
		"file", fileName,
		"valid", preview.Counts.Valid,
		"duplicates", preview.Counts.Duplicate,
		"errors", preview.Counts.Error,
	)
	s.publish(pubsub.MatchesBulkCreated, map[string]interface{}{"count": preview.Counts.Valid, "source": "csv"})
	return preview, nil
}
