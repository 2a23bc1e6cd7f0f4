package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"heather-backend/internal/domain"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type EventType string

const (
	EventLoginSuccess        EventType = "login_success"
	EventLoginFailed         EventType = "login_failed"
	EventSignup              EventType = "signup"
	EventSignupFailed        EventType = "signup_failed"
	EventLogout              EventType = "logout"
	EventRateLimitTriggered  EventType = "rate_limit_triggered"
	EventUnauthorizedAccess  EventType = "unauthorized_access"
	EventForbiddenAccess     EventType = "forbidden_access"
	EventValidationFailed    EventType = "validation_failed"
	EventUploadRejected      EventType = "upload_rejected"
	EventUploadQuotaExceeded EventType = "upload_quota_exceeded"
)

// Severity is derived from the event type, never supplied by callers.
type Severity string

const (
	SeverityInfo   Severity = "INFO"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

var eventSeverity = map[EventType]Severity{
	EventLoginSuccess:        SeverityInfo,
	EventSignup:              SeverityInfo,
	EventLogout:              SeverityInfo,
	EventLoginFailed:         SeverityMedium,
	EventSignupFailed:        SeverityMedium,
	EventValidationFailed:    SeverityMedium,
	EventRateLimitTriggered:  SeverityMedium,
	EventUploadQuotaExceeded: SeverityMedium,
	EventUploadRejected:      SeverityHigh,
	EventUnauthorizedAccess:  SeverityHigh,
	EventForbiddenAccess:     SeverityHigh,
}

// SeverityOf returns the severity for an event type, MEDIUM when unknown.
func SeverityOf(event EventType) Severity {
	if s, ok := eventSeverity[event]; ok {
		return s
	}
	return SeverityMedium
}

type SecurityEvent struct {
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Environment  string                 `json:"env"`
	Severity     Severity               `json:"severity"`
	Event        EventType              `json:"event"`
	SubjectType  string                 `json:"subject_type,omitempty"`  // "email", "ip", "user_id"
	SubjectValue string                 `json:"subject_value,omitempty"` // masked or hashed
	IP           string                 `json:"ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SecurityLogger writes authentication and access events through zap.
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
	persistFunc func(ctx context.Context, event SecurityEvent) error
}

var defaultLogger *SecurityLogger

// InitSecurityLogger builds the production zap logger and installs it as
// the default.
func InitSecurityLogger(serviceName, environment string) *SecurityLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger = zap.NewNop()
	}

	defaultLogger = NewSecurityLogger(logger, serviceName, environment)
	return defaultLogger
}

// NewSecurityLogger wraps an existing zap logger.
func NewSecurityLogger(logger *zap.Logger, serviceName, environment string) *SecurityLogger {
	return &SecurityLogger{
		zapLogger:   logger,
		serviceName: serviceName,
		environment: environment,
	}
}

func DefaultLogger() *SecurityLogger {
	if defaultLogger == nil {
		return InitSecurityLogger("heather", "development")
	}
	return defaultLogger
}

// SetPersistFunc stores events in addition to logging them.
func (sl *SecurityLogger) SetPersistFunc(f func(ctx context.Context, event SecurityEvent) error) {
	sl.persistFunc = f
}

func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = sl.serviceName
	event.Environment = sl.environment
	event.Severity = SeverityOf(event.Event)

	level := zapcore.WarnLevel
	switch event.Severity {
	case SeverityInfo:
		level = zapcore.InfoLevel
	case SeverityHigh:
		level = zapcore.ErrorLevel
	}

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("env", event.Environment),
		zap.String("event", string(event.Event)),
		zap.String("severity", string(event.Severity)),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(level, string(event.Event), fields...)

	if sl.persistFunc != nil {
		go func(e SecurityEvent) {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := sl.persistFunc(ctx, e); err != nil {
				sl.zapLogger.Error("failed to persist security event", zap.Error(err))
			}
		}(event)
	}
}

// --- Session audit (used by the terminal client) ---

func (sl *SecurityLogger) LogLoginSuccess(ctx context.Context, email string) {
	sl.Log(ctx, SecurityEvent{Event: EventLoginSuccess, SubjectType: "email", SubjectValue: MaskEmail(email)})
}

func (sl *SecurityLogger) LogLoginFailed(ctx context.Context, email, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventLoginFailed,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		Details:      map[string]interface{}{"reason": reason},
	})
}

func (sl *SecurityLogger) LogSignup(ctx context.Context, email string, role domain.Role, needsConfirmation bool) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventSignup,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		Details:      map[string]interface{}{"role": string(role), "needs_confirmation": needsConfirmation},
	})
}

func (sl *SecurityLogger) LogSignupFailed(ctx context.Context, email, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventSignupFailed,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		Details:      map[string]interface{}{"reason": reason},
	})
}

func (sl *SecurityLogger) LogLogout(ctx context.Context, userID string) {
	sl.Log(ctx, SecurityEvent{Event: EventLogout, SubjectType: "user_id", SubjectValue: HashValue(userID)})
}

// --- API access events ---

func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, userAgent, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details:      map[string]interface{}{"endpoint": endpoint},
	})
}

func (sl *SecurityLogger) LogUnauthorized(ctx context.Context, ip, requestID, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventUnauthorizedAccess,
		IP:        ip,
		RequestID: requestID,
		Details:   map[string]interface{}{"reason": reason},
	})
}

func (sl *SecurityLogger) LogForbidden(ctx context.Context, userID, resource string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventForbiddenAccess,
		SubjectType:  "user_id",
		SubjectValue: HashValue(userID),
		Details:      map[string]interface{}{"resource": resource},
	})
}

func (sl *SecurityLogger) LogUploadRejected(ctx context.Context, userID, fileName, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventUploadRejected,
		SubjectType:  "user_id",
		SubjectValue: HashValue(userID),
		Details:      map[string]interface{}{"file_name": fileName, "reason": reason},
	})
}

func (sl *SecurityLogger) LogUploadQuotaExceeded(ctx context.Context, userID string) {
	sl.Log(ctx, SecurityEvent{Event: EventUploadQuotaExceeded, SubjectType: "user_id", SubjectValue: HashValue(userID)})
}

func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// MaskEmail keeps the first character and the domain: "j***@example.com".
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	if at <= 1 {
		return "***" + email[1:]
	}
	return email[:1] + "***" + email[at:]
}

// HashValue returns the first 16 hex chars of the SHA-256 of value.
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}
