package imagecheck

import "fmt"

// Fallback is the "no data" block shown in place of missing charts.
type Fallback struct {
	Title      string
	Text       string
	LinkText   string
	LinkTarget string
}

// Watch describes one results page: where its images are, which container
// gets replaced and with what.
type Watch struct {
	Name string
	Page string
	// Container and Images are XPath expressions evaluated against the page.
	Container string
	Images    string
	// RequireAll replaces the container when any image fails. Otherwise the
	// container is replaced only when every image fails.
	RequireAll bool
	// Absent replaces the container when the page has no matching images.
	Absent   bool
	Fallback Fallback
}

func classXPath(class string) string {
	return fmt.Sprintf("//*[contains(concat(' ', normalize-space(@class), ' '), ' %s ')]", class)
}

const backLink = "Перейти к параметрам"

var (
	Graphic = Watch{
		Name:       "graphic",
		Page:       "/graphic",
		Container:  classXPath("image-container"),
		Images:     "//img[@id='graphic-image']",
		RequireAll: true,
		Absent:     true,
		Fallback: Fallback{
			Title:      "График не доступен",
			Text:       `Выполните расчеты на странице "Параметры" чтобы увидеть график`,
			LinkText:   backLink,
			LinkTarget: "/",
		},
	}

	Disturbances = Watch{
		Name:       "disturbances",
		Page:       "/facks",
		Container:  classXPath("image-container"),
		Images:     "//img[@id='disturbances-image']",
		RequireAll: true,
		Absent:     true,
		Fallback: Fallback{
			Title:      "График возмущений не доступен",
			Text:       `Выполните расчеты на странице "Параметры" чтобы увидеть график возмущений`,
			LinkText:   backLink,
			LinkTarget: "/",
		},
	}

	Diagrams = Watch{
		Name:       "diagrams",
		Page:       "/diagrams",
		Container:  classXPath("diagrams-grid"),
		Images:     classXPath("diagram-img"),
		RequireAll: true,
		Fallback: Fallback{
			Title:      "Диаграммы не доступны",
			Text:       `Выполните расчеты на странице "Параметры" чтобы увидеть диаграммы`,
			LinkText:   backLink,
			LinkTarget: "/",
		},
	}
)

// Watches lists the results pages in menu order.
var Watches = []Watch{Graphic, Disturbances, Diagrams}

// Lookup finds a watch by name or page path.
func Lookup(name string) (Watch, error) {
	for _, w := range Watches {
		if w.Name == name || w.Page == name {
			return w, nil
		}
	}
	return Watch{}, fmt.Errorf("%w: %s", ErrUnknownWatch, name)
}
