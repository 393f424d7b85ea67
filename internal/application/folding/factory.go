package folding

import (
	"context"
	"time"

	"github.com/turtacn/foldcore/internal/config"
	"github.com/turtacn/foldcore/internal/domain/conformation"
	"github.com/turtacn/foldcore/internal/domain/energy"
	domainFold "github.com/turtacn/foldcore/internal/domain/folding"
	"github.com/turtacn/foldcore/internal/domain/thermo"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/foldcore/internal/infrastructure/storage/minio"
	"github.com/turtacn/foldcore/pkg/errors"
)

// ObjectSourceFunc opens the object-storage MapSource for decoy_source minio.
type ObjectSourceFunc func(cfg config.MinIOConfig, log logging.Logger) (conformation.MapSource, error)

// DefaultObjectSource connects to MinIO.
func DefaultObjectSource(cfg config.MinIOConfig, log logging.Logger) (conformation.MapSource, error) {
	client, err := minio.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Builder assembles a Folder from configuration.
type Builder struct {
	Config       *config.Config
	Logger       logging.Logger
	Metrics      *prometheus.FoldMetrics
	ObjectSource ObjectSourceFunc
}

// BuildFolder loads the energy model, builds the conformation library and
// returns a ready Folder.
func (b Builder) BuildFolder(ctx context.Context) (*domainFold.Folder, error) {
	if b.Config == nil {
		return nil, errors.InvalidConfig("folder builder needs a configuration")
	}
	log := b.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	cfg := b.Config

	weighting, err := thermo.ParseWeighting(cfg.Folding.Weighting)
	if err != nil {
		return nil, err
	}
	model, err := energy.LoadModelFile(cfg.Energy.MatrixPath)
	if err != nil {
		return nil, err
	}

	lib, err := b.BuildLibrary(ctx)
	if err != nil {
		return nil, err
	}

	opts := []domainFold.Option{
		domainFold.WithWeighting(weighting),
		domainFold.WithWorkers(cfg.Folding.Workers),
	}
	if decoys, ok := lib.(*conformation.DecoyLibrary); ok && cfg.Folding.VerifyLetters {
		opts = append(opts, domainFold.WithLetterVerification(decoys))
	}
	return domainFold.New(lib, model, opts...)
}

// BuildLibrary builds the configured library within library.build_timeout.
func (b Builder) BuildLibrary(ctx context.Context) (conformation.Library, error) {
	cfg := b.Config.Library
	log := b.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	if cfg.BuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.BuildTimeout)
		defer cancel()
	}

	start := time.Now()
	var (
		lib conformation.Library
		err error
	)
	switch cfg.Kind {
	case string(conformation.KindLattice):
		lib, err = conformation.NewLatticeLibrary(ctx, cfg.LatticeSide)
	case string(conformation.KindDecoy):
		var src conformation.MapSource
		if src, err = b.mapSource(log); err == nil {
			lib, err = conformation.LoadDecoyLibrary(ctx, src, cfg.DecoyIndex, cfg.ProteinLength, cfg.LogNconf)
		}
	default:
		err = errors.InvalidConfig("unknown library kind").WithDetail(cfg.Kind)
	}
	if err != nil {
		log.Error("failed to build conformation library", logging.String("kind", cfg.Kind), logging.Err(err))
		prometheus.RecordError(b.Metrics, "library", errors.GetCode(err).String())
		return nil, err
	}

	prometheus.RecordLibrary(b.Metrics, cfg.Kind, lib.Size(), time.Since(start))
	logging.LogOperationDuration(log, "build_library", start,
		logging.String("kind", cfg.Kind),
		logging.Int("size", lib.Size()),
		logging.Int("protein_length", lib.ProteinLength()),
	)
	return lib, nil
}

func (b Builder) mapSource(log logging.Logger) (conformation.MapSource, error) {
	cfg := b.Config
	switch cfg.Library.DecoySource {
	case "", "dir":
		return conformation.NewDirSource(cfg.Library.DecoyDir), nil
	case "minio":
		open := b.ObjectSource
		if open == nil {
			open = DefaultObjectSource
		}
		return open(cfg.MinIO, log)
	default:
		return nil, errors.InvalidConfig("unknown decoy source").WithDetail(cfg.Library.DecoySource)
	}
}

// NewServiceFromConfig applies the folding section of cfg to NewService.
func NewServiceFromConfig(folder *domainFold.Folder, cfg *config.Config, opts ...Option) (Service, error) {
	base := []Option{
		WithMaxBatch(cfg.Folding.MaxBatch),
		WithDesignMaxAttempts(cfg.Folding.DesignMaxAttempts),
	}
	return NewService(folder, append(base, opts...)...)
}

//Personal.AI order the ending
