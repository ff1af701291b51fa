package task

// Stage - роль, которая сейчас владеет задачей.
type Stage string

const StageNone Stage = ""
const StageMaker Stage = "maker"
const StageChecker Stage = "checker"
const StageReviewer Stage = "reviewer"
const StageAuditor Stage = "auditor"

// StageOrder - полный маршрут; задача проходит только роли с назначенным пользователем.
var StageOrder = []Stage{StageMaker, StageChecker, StageReviewer, StageAuditor}

func (s Stage) Valid() bool {
	switch s {
	case StageMaker, StageChecker, StageReviewer, StageAuditor:
		return true
	}
	return false
}

func ParseStage(raw string) (Stage, bool) {
	s := Stage(raw)
	return s, s.Valid()
}

// Assignment - четыре слота ролей, пустая строка - роль не назначена.
type Assignment struct {
	Maker    string `json:"maker,omitempty" yaml:"maker" validate:"omitempty,max=128"`
	Checker  string `json:"checker,omitempty" yaml:"checker" validate:"omitempty,max=128"`
	Reviewer string `json:"reviewer,omitempty" yaml:"reviewer" validate:"omitempty,max=128"`
	Auditor  string `json:"auditor,omitempty" yaml:"auditor" validate:"omitempty,max=128"`
}

func (a Assignment) Get(stage Stage) string {
	switch stage {
	case StageMaker:
		return a.Maker
	case StageChecker:
		return a.Checker
	case StageReviewer:
		return a.Reviewer
	case StageAuditor:
		return a.Auditor
	}
	return ""
}

func (a Assignment) Stages() []Stage {
	stages := make([]Stage, 0, len(StageOrder))
	for _, s := range StageOrder {
		if a.Get(s) != "" {
			stages = append(stages, s)
		}
	}
	return stages
}

func (a Assignment) Empty() bool {
	return len(a.Stages()) == 0
}

// Holds сообщает, назначен ли user хотя бы на одну роль.
func (a Assignment) Holds(user string) bool {
	if user == "" {
		return false
	}
	for _, s := range StageOrder {
		if a.Get(s) == user {
			return true
		}
	}
	return false
}
