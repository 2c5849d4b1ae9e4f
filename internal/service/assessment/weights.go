package assessment

// Weights содержит таблицы баллов для каждого вопроса квиза.
// Неизвестные метки дают 0 баллов.
type Weights struct {
	Color        map[string]int
	Consistency  map[string]int
	Smell        map[string]int
	Float        map[string]int
	FloatDetails map[string]int
}

// DefaultWeights - таблицы баллов, которые использует мобильное приложение
var DefaultWeights = Weights{
	Color: map[string]int{
		"White":  18,
		"Yellow": 12,
		"Green":  4,
		"Brown":  0,
		"Red":    12,
		"Black":  18,
	},
	Consistency: map[string]int{
		"Hard":   2,
		"Lumpy":  3,
		"Formed": 0,
		"Soft":   1,
		"Mushy":  2,
		"Watery": 4,
		"Sticky": 5,
		"Oily":   6,
	},
	Smell: map[string]int{
		"Normal":    0,
		"Foul":      2,
		"Very Foul": 4,
	},
	Float: map[string]int{
		"Float": 2,
		"Sink":  0,
	},
	FloatDetails: map[string]int{
		"Foamy":          2,
		"Layered":        2,
		"Only top":       1,
		"Partial sink":   1,
		"Mixed density":  2,
		"Sank fast":      0,
		"Sank slowly":    1,
		"Stuck to bowl":  2,
		"Fell in chunks": 1,
		"Dense solid":    0,
	},
}

// Варианты ответов в порядке, в котором их показывает квиз
var (
	ColorOptions       = []string{"White", "Yellow", "Green", "Brown", "Red", "Black"}
	ConsistencyOptions = []string{"Hard", "Lumpy", "Formed", "Soft", "Mushy", "Watery", "Sticky", "Oily"}
	SmellOptions       = []string{"Normal", "Foul", "Very Foul"}
	FloatOptions       = []string{"Float", "Sink"}
	FloatDetailOptions = map[string][]string{
		"Float": {"Foamy", "Layered", "Only top", "Partial sink", "Mixed density"},
		"Sink":  {"Sank fast", "Sank slowly", "Stuck to bowl", "Fell in chunks", "Dense solid"},
	}
)
