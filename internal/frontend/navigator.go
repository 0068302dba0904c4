package frontend

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// ChanNavigator delivers navigation requests on a channel. Requests are
// dropped when the channel is full; only the latest page matters.
type ChanNavigator chan string

func (c ChanNavigator) Navigate(path string) {
	select {
	case c <- path:
	default:
	}
}
