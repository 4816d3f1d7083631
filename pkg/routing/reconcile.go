package routing

import (
	"context"
	"errors"
	"reflect"
	"sort"

	"go.uber.org/zap"

	"deckforge-hq/atlas/pkg/config"
)

// Reconcile brings the registered set in line with desired: providers that
// are new or whose settings changed are (re)added, providers absent from
// desired are removed, and unchanged ones keep their instance and metrics.
//
// Every provider is attempted; failures are joined into the returned error.
// A provider that fails to re-add keeps its previous instance.
func (m *Manager) Reconcile(ctx context.Context, desired map[string]config.ProviderConfig) error {
	if m.isClosed() {
		return ErrManagerClosed
	}

	current := make(map[string]*instance)
	for _, in := range m.snapshotInstances() {
		current[in.name] = in
	}

	names := make([]string, 0, len(desired))
	for name := range desired {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		errs                      []error
		added, updated, unchanged int
	)
	for _, name := range names {
		pc := desired[name]
		settings := pc.ProviderSettings(name)

		if in, ok := current[name]; ok {
			if reflect.DeepEqual(in.config, settings) && in.priority == pc.Priority && in.weight == pc.Weight {
				unchanged++
				continue
			}
			updated++
		} else {
			added++
		}

		if err := m.AddProvider(ctx, name, pc.Kind, settings, pc.Priority, pc.Weight); err != nil {
			errs = append(errs, err)
		}
	}

	removed := 0
	for name := range current {
		if _, ok := desired[name]; ok {
			continue
		}
		if err := m.RemoveProvider(name); err != nil && !errors.Is(err, ErrProviderNotFound) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	m.logger.Info("providers reconciled",
		zap.Int("added", added),
		zap.Int("updated", updated),
		zap.Int("removed", removed),
		zap.Int("unchanged", unchanged),
		zap.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}
