package form

import "fmt"

var VariableLabels = [InitialCount]string{
	"Среднее количество нарушений инструкций пилотами",
	"Доля частных судов в авиации",
	"Показатель активности органов контроля за оборотом контрафакта",
	"Количество сотрудников в метеорологических службах",
	"Катастрофы из-за метеоусловий",
	"Катастрофы из-за технических неисправностей",
	"Катастрофы из-за человеческого фактора",
	"Общее количество катастроф",
}

var FactorLabels = [FakCount]string{
	"Средняя выработка ресурса до списания",
	"Доля иностранных воздушных судов",
	"Средний лётный стаж пилотов",
	"Стоимость авиационного топлива",
	"Количество нормативно-правовых актов",
}

// EquationVariable maps equation f_i to the 1-based index of the variable X_j it depends on.
var EquationVariable = [EquationCount]int{2, 3, 4, 4, 6, 7, 8, 7, 1, 2, 7, 1, 2, 2, 2, 3, 4, 2}

// Subscript renders n with Unicode subscript digits.
func Subscript(n int) string {
	const digits = "₀₁₂₃₄₅₆₇₈₉"
	s := fmt.Sprint(n)
	out := make([]rune, 0, len(s))
	sub := []rune(digits)
	for _, c := range s {
		if c >= '0' && c <= '9' {
			out = append(out, sub[c-'0'])
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// Describe returns a short human label for a field.
func Describe(id FieldID) string {
	switch id.Group {
	case GroupStatus:
		return "Статус"
	case GroupFak:
		if id.Part == PartA {
			return fmt.Sprintf("F%s a", Subscript(id.Index))
		}
		return fmt.Sprintf("F%s b·t", Subscript(id.Index))
	case GroupInitial:
		return fmt.Sprintf("X%s(0)", Subscript(id.Index))
	case GroupRestriction:
		return fmt.Sprintf("X%s max", Subscript(id.Index))
	case GroupEquation:
		x := "X" + Subscript(EquationVariable[id.Index-1])
		if id.Part == PartK {
			return fmt.Sprintf("f%s(%s) k", Subscript(id.Index), x)
		}
		return fmt.Sprintf("f%s(%s) b", Subscript(id.Index), x)
	}
	return id.String()
}
