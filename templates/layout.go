// Package templates renders the parish pages with gomponents.
package templates

import (
	"time"

	"churchsite/constants"

	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

type LayoutProps struct {
	Title       string
	CurrentUser string
	Admin       bool
}

func NavbarComponent(props LayoutProps) g.Node {
	return Nav(Class("nav"),
		Div(Class("nav-left"),
			Div(Class("brand"), A(Href("/"), g.Text(constants.APP_NAME))),
		),
		Div(Class("nav-links nav-right"),
			g.If(!props.Admin,
				Div(
					A(Href("/about"), g.Text("About")),
					A(Href("/mass"), g.Text("Mass Times")),
					A(Href("/events"), g.Text("Events")),
					A(Href("/news"), g.Text("News")),
					A(Href("/gallery"), g.Text("Gallery")),
					A(Href("/community"), g.Text("Join Us")),
				),
			),
			g.If(props.Admin,
				Div(
					A(Href("/admin"), g.Text("Dashboard")),
					A(Href("/admin/news"), g.Text("News")),
					A(Href("/admin/events"), g.Text("Events")),
					A(Href("/admin/albums"), g.Text("Albums")),
					A(Href("/admin/membership"), g.Text("Membership")),
					A(Href("/admin/mass"), g.Text("Mass Settings")),
				),
			),
			g.If(props.CurrentUser != "",
				Div(Class("row"),
					Div(Class("col"), g.Textf("Signed in as %s", props.CurrentUser)),
					Div(Class("col"), g.If(!props.Admin, A(Href("/admin"), g.Text("Admin")))),
					Div(Class("col"),
						g.El("form", Method("post"), Action("/logout"),
							Button(Type("submit"), Class("button clear"), g.Text("Sign out")),
						),
					),
				)),
		),
	)
}

func FooterComponent() g.Node {
	return Footer(Class("footer"),
		P(
			Small(g.Textf("© %d %s. All are welcome.", time.Now().Year(), constants.APP_NAME)),
		),
		P(
			Small(A(Href("/mass"), g.Text("Mass times")), g.Text(" · "), A(Href("/community"), g.Text("Register as a parishioner"))),
		),
	)
}

func Layout(props LayoutProps, children ...g.Node) g.Node {
	title := constants.APP_NAME
	if props.Title != "" {
		title = props.Title + " | " + constants.APP_NAME
	}

	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				Link(Rel("icon"), Type("image/svg+xml"), Href("data:image/svg+xml,<svg xmlns=%22http://www.w3.org/2000/svg%22 viewBox=%220 0 100 100%22><text y=%22.9em%22 font-size=%2290%22>⛪</text></svg>")),

				Link(Rel("stylesheet"), Href("/assets/css/chota.min.css")),
				Link(Rel("stylesheet"), Href("/assets/css/main.css")),

				TitleEl(g.Text(title)),
			),
			Body(
				Div(Class("container"), Style("margin-top: 1.5em;"),
					NavbarComponent(props),
					Main(
						g.Group(children),
					),
				),
				FooterComponent(),
			),
		),
	)
}

// ErrorPage is shown for form problems the visitor can fix.
func ErrorPage(props LayoutProps, heading string, problems []string, back string) g.Node {
	return Layout(props,
		H1(g.Text(heading)),
		Ul(Class("text-error"), g.Group(g.Map(problems, func(p string) g.Node { return Li(g.Text(p)) }))),
		P(A(Href(back), g.Text("Go back"))),
	)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Monday, January 2, 2006")
}

func inputDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
