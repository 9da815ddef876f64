package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AlarmKind - вид напоминания
type AlarmKind string

// Виды напоминаний
const (
	AlarmWarning       AlarmKind = "warning"         // За N минут до окончания нормы
	AlarmCompletion    AlarmKind = "completion"      // Норма выработана
	AlarmBreakWarning  AlarmKind = "break_warning"   // За N минут до конца перерыва
	AlarmBreakEndExact AlarmKind = "break_end_exact" // Конец перерыва
	AlarmOvertime      AlarmKind = "overtime"        // Периодическое напоминание о переработке
)

// OvertimeAlarmName - единственный периодический таймер
const OvertimeAlarmName = "overtime-notifier"

// IsWorkEnd - напоминание, которое пересоздается при каждом пересчете окончания дня
func (k AlarmKind) IsWorkEnd() bool {
	return k == AlarmWarning || k == AlarmCompletion
}

// IsBreak - напоминание о перерыве, живет независимо от пересчетов окончания дня
func (k AlarmKind) IsBreak() bool {
	return k == AlarmBreakWarning || k == AlarmBreakEndExact
}

// AlarmKey - структурный ключ таймера. Имя таймера выводится из ключа,
// и на пару (дата, вид, дискриминатор) приходится не больше одного таймера.
type AlarmKey struct {
	WorkDate      string
	Kind          AlarmKind
	Discriminator string
}

var (
	datedNameRe    = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_(.+)$`)
	warningNameRe  = regexp.MustCompile(`^(\d+)min-warning$`)
	breakEndNameRe = regexp.MustCompile(`^break-end_(\d{4})$`)
	breakWarnRe    = regexp.MustCompile(`^break-warning_(\d{4})$`)
)

// WarningKey - ключ предупреждения за minutesBefore минут
func WarningKey(workDate string, minutesBefore int) AlarmKey {
	return AlarmKey{WorkDate: workDate, Kind: AlarmWarning, Discriminator: strconv.Itoa(minutesBefore)}
}

// CompletionKey - ключ напоминания об окончании нормы
func CompletionKey(workDate string) AlarmKey {
	return AlarmKey{WorkDate: workDate, Kind: AlarmCompletion}
}

// BreakEndKey - ключ напоминания о конце перерыва, начатого в breakStart (HH:MM)
func BreakEndKey(workDate, breakStart string) AlarmKey {
	return AlarmKey{WorkDate: workDate, Kind: AlarmBreakEndExact, Discriminator: breakDiscriminator(breakStart)}
}

// BreakWarningKey - ключ предупреждения перед концом перерыва
func BreakWarningKey(workDate, breakStart string) AlarmKey {
	return AlarmKey{WorkDate: workDate, Kind: AlarmBreakWarning, Discriminator: breakDiscriminator(breakStart)}
}

// OvertimeKey - ключ периодического напоминания о переработке
func OvertimeKey() AlarmKey {
	return AlarmKey{Kind: AlarmOvertime}
}

func breakDiscriminator(breakStart string) string {
	d := strings.ReplaceAll(strings.TrimSpace(breakStart), ":", "")
	if len(d) == 3 {
		d = "0" + d
	}
	return d
}

// Name возвращает имя таймера: "<date>_<kind>"
func (k AlarmKey) Name() string {
	var suffix string
	switch k.Kind {
	case AlarmWarning:
		suffix = k.Discriminator + "min-warning"
	case AlarmCompletion:
		suffix = "completion"
	case AlarmBreakEndExact:
		suffix = "break-end_" + k.Discriminator
	case AlarmBreakWarning:
		suffix = "break-warning_" + k.Discriminator
	case AlarmOvertime:
		return OvertimeAlarmName
	default:
		suffix = string(k.Kind)
	}
	return k.WorkDate + "_" + suffix
}

// ParseAlarmName восстанавливает ключ из имени таймера
func ParseAlarmName(name string) (AlarmKey, bool) {
	if name == OvertimeAlarmName {
		return OvertimeKey(), true
	}

	m := datedNameRe.FindStringSubmatch(name)
	if m == nil {
		return AlarmKey{}, false
	}
	date, rest := m[1], m[2]

	if rest == "completion" {
		return CompletionKey(date), true
	}
	if sm := warningNameRe.FindStringSubmatch(rest); sm != nil {
		return AlarmKey{WorkDate: date, Kind: AlarmWarning, Discriminator: sm[1]}, true
	}
	if sm := breakEndNameRe.FindStringSubmatch(rest); sm != nil {
		return AlarmKey{WorkDate: date, Kind: AlarmBreakEndExact, Discriminator: sm[1]}, true
	}
	if sm := breakWarnRe.FindStringSubmatch(rest); sm != nil {
		return AlarmKey{WorkDate: date, Kind: AlarmBreakWarning, Discriminator: sm[1]}, true
	}
	return AlarmKey{}, false
}

// Alarm - метаданные запланированного таймера. Хранятся до срабатывания,
// чтобы таймер пережил перезапуск процесса.
type Alarm struct {
	Name           string    `gorm:"primaryKey;size:128" json:"name"`
	Kind           AlarmKind `gorm:"type:varchar(32);not null;index" json:"kind"`
	WorkDate       string    `gorm:"size:10;index" json:"workDate"`
	FireAt         time.Time `gorm:"not null" json:"fireAt"`
	PeriodMinutes  int       `gorm:"not null" json:"periodMinutes"`
	MinutesBefore  int       `json:"minutesBefore,omitempty"`
	CompletionTime string    `gorm:"size:8" json:"completionTime,omitempty"`
	BreakStartTime string    `gorm:"size:8" json:"breakStartTime,omitempty"`
	BreakEndTime   string    `gorm:"size:8" json:"breakEndTime,omitempty"`
	ScheduledAt    time.Time `gorm:"not null" json:"scheduledAt"`
}

func (Alarm) TableName() string {
	return "alarms"
}

// IsPeriodic проверяет, повторяется ли таймер
func (a *Alarm) IsPeriodic() bool {
	return a.PeriodMinutes > 0
}

// Period возвращает период повтора
func (a *Alarm) Period() time.Duration {
	return time.Duration(a.PeriodMinutes) * time.Minute
}

// Key восстанавливает структурный ключ по имени
func (a *Alarm) Key() (AlarmKey, bool) {
	return ParseAlarmName(a.Name)
}
