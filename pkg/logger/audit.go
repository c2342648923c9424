package pkg

import (
	"io"
	"os"
	"time"

	"github.com/ScrpTrx-Go/tgprune/internal/domain/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditLogger writes one JSON object per evaluated post. Records carry no
// timestamp or level, so identical inputs produce identical output.
type AuditLogger struct {
	log *zap.Logger
}

func NewAuditLogger() *AuditLogger {
	return NewAuditLoggerTo(os.Stdout)
}

func NewAuditLoggerTo(w io.Writer) *AuditLogger {
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(zapcore.AddSync(w)), zapcore.InfoLevel)
	return &AuditLogger{log: zap.New(core)}
}

func (a *AuditLogger) Record(rec model.AuditRecord) {
	a.log.Info("post",
		zap.Int64("id", rec.PostID),
		zap.String("created_at", rec.CreatedAt.UTC().Format(time.RFC3339)),
		zap.Bool("protected", rec.Protected),
		zap.String("decision", string(rec.Decision)),
		zap.Bool("dry_run", rec.DryRun),
		zap.Reflect("post", rec.Payload),
	)
}

func (a *AuditLogger) Sync() error {
	return a.log.Sync()
}
