package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/adapters/presenter"
	"github.com/mikey/phish-interrogator/internal/config"
	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/extract"
	"github.com/mikey/phish-interrogator/internal/factory"
	"github.com/mikey/phish-interrogator/internal/logging"
	"github.com/mikey/phish-interrogator/internal/ports"
	"github.com/mikey/phish-interrogator/internal/sanitize"
	"github.com/mikey/phish-interrogator/internal/utils"
	"github.com/mikey/phish-interrogator/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register cache
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) (core.VerdictCache, error) {
		return f.CreateVerdictCache()
	}); err != nil {
		return nil, err
	}

	// Register interrogation service
	if err := container.Provide(newService); err != nil {
		return nil, err
	}

	// Register overlay server
	if err := container.Provide(func(cfg *config.Config) (config.ServerConfig, error) {
		return cfg.GetServer()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(presenter.NewHTTPPresenter); err != nil {
		return nil, err
	}
	if err := container.Provide(func(p *presenter.HTTPPresenter) ports.Presenter {
		return p
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCore registers everything between configuration and the service
// that the daemon and the CLI share
func provideCore(container *dig.Container) error {
	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewNotifierFactory); err != nil {
		return err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.Classifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return err
	}

	// Register notifier
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return err
	}

	// Register extractor
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger, tp *utils.TextProcessor) *extract.Extractor {
		sel := cfg.GetExtractor()
		return extract.NewExtractor(extract.Selectors{
			From:         sel.Sender,
			To:           sel.Recipients,
			Date:         sel.Date,
			Subject:      sel.Subject,
			Body:         sel.Body,
			ReceiverName: sel.ReceiverName,
		}, logger, tp)
	}); err != nil {
		return err
	}

	// Register trusted domains
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.DomainTrust {
		return whitelist.NewChecker(cfg.GetTrustedDomains(), logger)
	}); err != nil {
		return err
	}

	// Register evidence censor
	return container.Provide(func() core.Censor {
		return sanitize.CensorLinks
	})
}

func newService(
	cfg *config.Config,
	classifier core.Classifier,
	cache core.VerdictCache,
	trust core.DomainTrust,
	notifier core.Notifier,
	censor core.Censor,
	logger *zap.Logger,
) (*core.InterrogationService, error) {
	classifierCfg, err := cfg.GetClassifier()
	if err != nil {
		return nil, err
	}
	cacheCfg, err := cfg.GetCache()
	if err != nil {
		return nil, err
	}

	return core.NewInterrogationService(classifier, cache, trust, notifier, censor, logger, core.ServiceOptions{
		CacheEnabled:    cacheCfg.Enabled,
		CacheTTL:        cacheCfg.TTL,
		ClassifyTimeout: classifierCfg.Timeout,
	}), nil
}
