package agroi18n

import (
	"context"
	"sync"
)

// WarmResult summarizes a warm-up run.
type WarmResult struct {
	// Warmed lists languages whose bundles were fetched and persisted.
	Warmed []string

	// Failed maps languages to the error that prevented warming them.
	Failed map[string]error
}

// WarmLocales prefetches the bundles for the given languages in parallel and
// persists them into the store, so a device can be prepared for offline use
// in one deliberate step. When langs is nil the languages come from the
// origin's locale manifest.
//
// Unlike Load, warming refetches languages the store already holds; a
// changed bundle overwrites the stored copy and the key differences are
// logged. The runtime locale state is not touched.
func (l *Loader) WarmLocales(ctx context.Context, langs []string) (WarmResult, error) {
	result := WarmResult{Failed: make(map[string]error)}

	if langs == nil {
		m, err := l.Manifest(ctx)
		if err != nil {
			return result, err
		}
		langs = m.Codes()
	}

	type warmOutcome struct {
		lang string
		err  error
	}

	seen := make(map[string]bool)
	outcomes := make(chan warmOutcome, len(langs))
	var wg sync.WaitGroup

	for _, raw := range langs {
		lang := NormalizeLanguage(raw)
		if lang == "" || lang == DefaultLanguage || seen[lang] {
			continue
		}
		seen[lang] = true

		wg.Add(1)
		go func(lang string) {
			defer wg.Done()
			outcomes <- warmOutcome{lang: lang, err: l.warmOne(ctx, lang)}
		}(lang)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		if o.err != nil {
			result.Failed[o.lang] = o.err
			continue
		}
		result.Warmed = append(result.Warmed, o.lang)
	}

	return result, nil
}

func (l *Loader) warmOne(ctx context.Context, lang string) error {
	bundle, err := l.fetchBundle(ctx, lang)
	if err != nil {
		return err
	}

	if l.store != nil {
		if prev, ok := l.store.GetBundle(lang); ok {
			if diff := DiffBundles(prev, bundle); !diff.Empty() {
				l.logger.Info("locale bundle refreshed",
					"lang", lang,
					"added", len(diff.Added),
					"changed", len(diff.Changed),
					"removed", len(diff.Removed))
			}
		}
		if err := l.store.PutBundle(lang, bundle); err != nil {
			return err
		}
	}
	return nil
}
