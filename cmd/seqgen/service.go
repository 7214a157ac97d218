package main

import (
	"context"

	"github.com/samcharles93/seqgen/internal/ensemble"
	"github.com/samcharles93/seqgen/internal/logger"
	"github.com/samcharles93/seqgen/internal/translate"
)

const defaultMaxLength = 100

// openService loads the ensemble named by the flags and builds the
// translation service.
func openService(ctx context.Context) (*translate.Service, error) {
	log := logger.FromContext(ctx)

	path, err := resolveEnsemblePath(ensemblePath)
	if err != nil {
		return nil, err
	}
	def, err := ensemble.Load(path)
	if err != nil {
		return nil, err
	}
	bundle, err := ensemble.Open(def)
	if err != nil {
		return nil, err
	}
	log.Info("loaded ensemble",
		"path", path,
		"members", len(def.Models),
		"source_vocab", bundle.Source.Size(),
		"target_vocab", bundle.Target.Size(),
	)

	length := int(maxLength)
	if length <= 0 {
		length = def.MaxLength
	}
	if length <= 0 {
		length = defaultMaxLength
	}
	return translate.New(bundle, translate.Config{
		MaxLength: length,
		BeamWidth: int(beamSize),
		Workers:   int(workers),
		PoolSize:  int(poolSize),
		Logger:    log,
	})
}
