package process

import (
	"context"

	"go.uber.org/zap"

	"github.com/doodlesbykumbi/amtt/pkg/audit"
	"github.com/doodlesbykumbi/amtt/pkg/es256"
	"github.com/doodlesbykumbi/amtt/pkg/keyfile"
	"github.com/doodlesbykumbi/amtt/pkg/logger"
)

// WatchToken signs a token from the key at path, passes it to emit, and
// signs again every time the file is rewritten until ctx is done. A rewrite
// that does not hold a usable key is logged and skipped; the first read must
// succeed.
func WatchToken(ctx context.Context, path, teamID, keyID string, exp uint64, emit func(string), opts ...es256.Option) error {
	log := logger.Named("watch")

	w, err := keyfile.NewWatcher(path)
	if err != nil {
		return err
	}
	defer w.Close()

	data, err := keyfile.Read(path)
	if err != nil {
		return err
	}
	tok, err := GenTokenFromPEM(data, teamID, keyID, exp, opts...)
	if err != nil {
		return err
	}
	emit(tok)

	log.Info("watching key file", logger.Path(path))
	return w.Run(ctx, func(data []byte, err error) {
		event := audit.KeyReloadEvent{Path: path, KeyID: keyID}
		if err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			log.Warn("key file unreadable", logger.Path(path), zap.Error(err))
			return
		}

		key, err := es256.NewSigningKey(data, keyID, opts...)
		if err != nil {
			event.ErrorMessage = err.Error()
			audit.Log(event)
			log.Warn("key file rejected", logger.Path(path), zap.Error(err))
			return
		}
		event.Fingerprint = key.Fingerprint()
		event.Success = true
		audit.Log(event)

		tok, err := SignWith(key, teamID, exp)
		if err != nil {
			log.Warn("failed to sign with reloaded key", logger.Path(path), zap.Error(err))
			return
		}
		emit(tok)
	})
}
