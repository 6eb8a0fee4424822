package automod

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
)

// A candidate signature, as registered at build time. ID may carry a source
// format suffix (eg "20240221.go"), which is dropped to form the signature name.
type Definition struct {
	ID    string
	Check CheckFunc
}

type RegistryOptions struct {
	// Canonical names of signatures to replace with stubs
	Disabled []string
	// Abort discovery on the first definition which can not be loaded,
	// instead of skipping it
	Strict bool
	Logger *slog.Logger
}

var ErrInvalidSignature = errors.New("invalid signature definition")

// Strips a single trailing source-format suffix from a signature identifier.
func CanonicalName(id string) string {
	ext := path.Ext(id)
	if ext == "" || ext == id {
		return id
	}
	return strings.TrimSuffix(id, ext)
}

// Splits a comma-separated disable list, dropping blanks.
func ParseDisableList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Discover turns the registered definitions into the ordered list of
// signatures the engine evaluates. Order is preserved. Disabled signatures
// stay in the list as stubs.
//
// A definition which can not be loaded (no name, no check function, or a
// duplicate name) is skipped with a warning; with opts.Strict it is instead
// returned as an error, along with no signatures at all.
func Discover(defs []Definition, opts RegistryOptions) ([]Signature, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	disabled := make(map[string]bool, len(opts.Disabled))
	for _, name := range opts.Disabled {
		disabled[name] = true
	}

	sigs := make([]Signature, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		name := CanonicalName(def.ID)
		// disabled signatures are never loaded, so a missing check is not an error for them
		if err := validateDefinition(name, def, seen, disabled[name]); err != nil {
			if opts.Strict {
				return nil, err
			}
			logger.Warn("skipping signature which failed to load", "id", def.ID, "err", err)
			continue
		}
		seen[name] = true

		if disabled[name] {
			logger.Info("disabled signature", "name", name)
			sigs = append(sigs, Signature{Name: name, Predicate: StubPredicate{}})
			continue
		}
		sigs = append(sigs, Signature{Name: name, Predicate: NewActivePredicate(def.Check)})
		logger.Info("loaded signature", "name", name)
	}

	for name := range disabled {
		if !seen[name] {
			logger.Warn("disable list names an unknown signature", "name", name)
		}
	}
	return sigs, nil
}

func validateDefinition(name string, def Definition, seen map[string]bool, disabled bool) error {
	if name == "" {
		return fmt.Errorf("%w: empty name (id %q)", ErrInvalidSignature, def.ID)
	}
	if seen[name] {
		return fmt.Errorf("%w: duplicate name %s", ErrInvalidSignature, name)
	}
	if def.Check == nil && !disabled {
		return fmt.Errorf("%w: %s has no check function", ErrInvalidSignature, name)
	}
	return nil
}
