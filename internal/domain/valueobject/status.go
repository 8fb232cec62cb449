package valueobject

// Status представляет трехуровневый вердикт здоровья (Value Object)
type Status string

const (
	StatusPass Status = "PASS"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// Score возвращает вклад вердикта в композитную оценку
func (s Status) Score() int {
	switch s {
	case StatusPass:
		return 100
	case StatusWarn:
		return 60
	default:
		return 0
	}
}

// severity: PASS < WARN < FAIL
func (s Status) severity() int {
	switch s {
	case StatusFail:
		return 2
	case StatusWarn:
		return 1
	default:
		return 0
	}
}

// WorseThan сравнивает два статуса по серьезности
func (s Status) WorseThan(other Status) bool {
	return s.severity() > other.severity()
}

// String возвращает строковое представление
func (s Status) String() string {
	return string(s)
}
