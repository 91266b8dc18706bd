package templates

import (
	"fmt"
	"strings"

	"churchsite/constants"
	"churchsite/database"
	"churchsite/registration"

	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

func HomePage(props LayoutProps, mass *database.MassSettings, events []database.Event, news []database.News) g.Node {
	var nextMass string
	if mass != nil {
		nextMass = firstLine(mass.MassTime)
	}

	return Layout(props,
		Section(Class("hero"),
			H1(g.Text(churchName(mass))),
			P(g.Text("A Catholic community gathered in faith, worship and service.")),
			g.If(nextMass != "", P(Strong(g.Text("Mass: ")), g.Text(nextMass))),
			A(Href("/mass"), Class("button primary"), g.Text("All Mass times")),
		),
		Section(
			H2(g.Text("Upcoming events")),
			g.If(len(events) == 0, P(g.Text("No upcoming events right now."))),
			Div(Class("row"), g.Group(g.Map(limit(events, 3), eventCard))),
			A(Href("/events"), g.Text("See all events")),
		),
		Section(
			H2(g.Text("Latest news")),
			g.If(len(news) == 0, P(g.Text("No news yet."))),
			Div(Class("row"), g.Group(g.Map(limit(news, 3), newsCard))),
			A(Href("/news"), g.Text("Read all news")),
		),
	)
}

func AboutPage(props LayoutProps, mass *database.MassSettings) g.Node {
	var address, email string
	if mass != nil {
		address, email = mass.Address, mass.Email
	}

	return Layout(props,
		H1(g.Textf("About %s", churchName(mass))),
		P(g.Text("Our parish has served the neighbourhood for generations. We celebrate the sacraments, care for those in need and welcome everyone who is looking for a spiritual home.")),
		g.If(address != "", P(Strong(g.Text("Find us: ")), g.Text(address))),
		g.If(email != "", P(Strong(g.Text("Write to us: ")), A(Href("mailto:"+email), g.Text(email)))),
		P(A(Href("/community"), Class("button primary"), g.Text("Register as a parishioner"))),
	)
}

func MassPage(props LayoutProps, mass *database.MassSettings) g.Node {
	if mass == nil {
		return Layout(props,
			H1(g.Text("Mass Times")),
			P(g.Text("Mass times will be published soon. Please contact the parish office.")),
		)
	}
	return Layout(props,
		H1(g.Text("Mass Times")),
		H3(g.Text(churchName(mass))),
		Ul(g.Group(g.Map(lines(mass.MassTime), func(l string) g.Node { return Li(g.Text(l)) }))),
		g.If(mass.Address != "", P(Strong(g.Text("Address: ")), g.Text(mass.Address))),
		g.If(mass.Email != "", P(Strong(g.Text("Email: ")), A(Href("mailto:"+mass.Email), g.Text(mass.Email)))),
	)
}

func EventsPage(props LayoutProps, events []database.Event) g.Node {
	return Layout(props,
		H1(g.Text("Events")),
		g.If(len(events) == 0, P(g.Text("No upcoming events right now."))),
		Div(Class("row"), g.Group(g.Map(events, eventCard))),
	)
}

func eventCard(e database.Event) g.Node {
	return Div(Class("col-4 card"),
		g.If(e.ImageURL != "", Img(Src(e.ImageURL), Alt(e.Title))),
		H4(A(Href(fmt.Sprintf("/events/%d", e.ID)), g.Text(e.Title))),
		P(Small(g.Text(formatDate(e.Date)), g.If(e.Time != "", g.Text(" · "+e.Time)))),
		g.If(e.Location != "", P(Small(g.Text(e.Location)))),
	)
}

// EventFormState carries what the visitor typed back into the form after a
// failed submission.
type EventFormState struct {
	Values     map[string]string
	Problems   []registration.Problem
	Registered bool
}

func EventPage(props LayoutProps, e *database.Event, mode registration.Mode, state EventFormState) g.Node {
	return Layout(props,
		Article(
			H1(g.Text(e.Title)),
			P(Strong(g.Text(formatDate(e.Date))), g.If(e.Time != "", g.Text(" · "+e.Time))),
			g.If(e.Location != "", P(g.Text(e.Location))),
			g.If(e.Category != "", P(Span(Class("tag"), g.Text(e.Category)))),
			g.If(e.ImageURL != "", Img(Src(e.ImageURL), Alt(e.Title), Style("max-width: 100%;"))),
			g.If(e.Attendees != "", P(Small(g.Textf("For: %s", e.Attendees)))),
			Div(Class("event-description"), RichText(e.Description)),
		),
		Section(registrationSection(e, mode, state)),
	)
}

func registrationSection(e *database.Event, mode registration.Mode, state EventFormState) g.Node {
	switch mode.Kind() {
	case registration.KindExternalLink:
		return P(A(Href(mode.Link()), Target("_blank"), Rel("noopener"), Class("button primary"), g.Text("Register")))
	case registration.KindForm:
		if state.Registered {
			return Div(Class("card bg-success"), P(g.Text("Thank you, your registration was received.")))
		}
		bad := map[string]string{}
		for _, p := range state.Problems {
			bad[p.Field] = p.Message
		}
		return g.Group([]g.Node{
			H2(g.Text("Register")),
			g.El("form", Method("post"), Action(fmt.Sprintf("/events/%d", e.ID)),
				g.Group(g.Map(mode.Fields(), func(f registration.FormField) g.Node {
					return formRow(f.Label, f.Required, bad[f.ID],
						Input(Type(string(f.Type)), ID(f.ID), Name(f.ID), Placeholder(f.Placeholder),
							Value(state.Values[f.ID]), g.If(f.Required, Required())),
					)
				})),
				Button(Type("submit"), Class("button primary"), g.Text("Register")),
			),
		})
	}
	return g.Text("")
}

func NewsListPage(props LayoutProps, news []database.News) g.Node {
	return Layout(props,
		H1(g.Text("News")),
		g.If(len(news) == 0, P(g.Text("No news yet."))),
		Div(Class("row"), g.Group(g.Map(news, newsCard))),
	)
}

func newsCard(n database.News) g.Node {
	return Div(Class("col-4 card"),
		g.If(n.ImageURL != "", Img(Src(n.ImageURL), Alt(n.Title))),
		H4(A(Href(fmt.Sprintf("/news/%d", n.ID)), g.Text(n.Title))),
		g.If(n.PublishedAt != nil, P(Small(g.Text(publishedOn(n))))),
		P(g.Text(n.Description)),
	)
}

func NewsPage(props LayoutProps, n *database.News) g.Node {
	return Layout(props,
		Article(
			H1(g.Text(n.Title)),
			P(Small(
				g.If(n.Author != "", g.Textf("By %s · ", n.Author)),
				g.Text(publishedOn(*n)),
			)),
			g.If(n.ImageURL != "", Img(Src(n.ImageURL), Alt(n.Title), Style("max-width: 100%;"))),
			Markdown(n.Content),
		),
		P(A(Href("/news"), g.Text("All news"))),
	)
}

func GalleryPage(props LayoutProps, albums []database.Album) g.Node {
	return Layout(props,
		H1(g.Text("Gallery")),
		g.If(len(albums) == 0, P(g.Text("No albums yet."))),
		Div(Class("row"), g.Group(g.Map(albums, func(a database.Album) g.Node {
			return Div(Class("col-4 card"),
				g.If(a.ImageURL != "", Img(Src(a.ImageURL), Alt(a.Title))),
				H4(A(Href(fmt.Sprintf("/gallery/%d", a.ID)), g.Text(a.Title))),
				P(Small(g.Textf("%s · %d photos", formatDate(a.Date), a.ImageCount))),
			)
		}))),
	)
}

func AlbumPage(props LayoutProps, a *database.Album, images []database.AlbumImage) g.Node {
	return Layout(props,
		H1(g.Text(a.Title)),
		P(Small(g.Text(formatDate(a.Date)))),
		g.If(a.Description != "", P(g.Text(a.Description))),
		Div(Class("row"), g.Group(g.Map(images, func(img database.AlbumImage) g.Node {
			return Div(Class("col-3"), A(Href(img.ImageURL), Target("_blank"), Img(Src(img.ImageURL), Alt(a.Title))))
		}))),
		P(A(Href("/gallery"), g.Text("Back to the gallery"))),
	)
}

// CommunityPage is the parishioner registration form.
func CommunityPage(props LayoutProps, submitted bool, problems []registration.Problem) g.Node {
	if submitted {
		return Layout(props,
			H1(g.Text("Thank you!")),
			P(g.Text("Your registration was received. The parish office will be in touch.")),
		)
	}

	bad := map[string]string{}
	for _, p := range problems {
		bad[p.Field] = p.Message
	}

	text := func(name, label string, required bool) g.Node {
		return formRow(label, required, bad[name], Input(Type("text"), ID(name), Name(name), g.If(required, Required())))
	}
	date := func(name, label string) g.Node {
		return formRow(label, false, bad[name], Input(Type("date"), ID(name), Name(name)))
	}

	members := make([]g.Node, 0, constants.MEMBERSHIP_EXTRA_SLOTS)
	for i := 0; i < constants.MEMBERSHIP_EXTRA_SLOTS; i++ {
		members = append(members, Div(Class("row"),
			Div(Class("col"), Input(Type("text"), Name("member_name"), Placeholder("Name"))),
			Div(Class("col"), Input(Type("date"), Name("member_date_of_birth"), g.Attr("title", "Date of birth"))),
			Div(Class("col"), Input(Type("date"), Name("member_date_of_baptism"), g.Attr("title", "Date of baptism"))),
			Div(Class("col"), Input(Type("date"), Name("member_date_of_confirmation"), g.Attr("title", "Date of confirmation"))),
		))
	}

	return Layout(props,
		H1(g.Text("Join our parish")),
		P(g.Text("Register your household with the parish office.")),
		g.If(len(problems) > 0, Ul(Class("text-error"), g.Group(g.Map(problems, func(p registration.Problem) g.Node {
			return Li(g.Text(p.Message))
		})))),
		g.El("form", Method("post"), Action("/community"),
			FieldSet(Legend(g.Text("You")),
				text("first_name", "First name", true),
				text("last_name", "Last name", true),
				date("date_of_birth", "Date of birth"),
				date("date_of_baptism", "Date of baptism"),
				date("date_of_confirmation", "Date of confirmation"),
				formRow("Gender", false, "", Select(Name("gender"),
					Option(Value(""), g.Text("")), Option(Value("female"), g.Text("Female")), Option(Value("male"), g.Text("Male")),
				)),
				formRow("Marital status", false, "", Select(Name("marital_status"),
					Option(Value(""), g.Text("")), Option(Value("single"), g.Text("Single")), Option(Value("married"), g.Text("Married")),
					Option(Value("widowed"), g.Text("Widowed")), Option(Value("other"), g.Text("Other")),
				)),
				formRow("Address", false, bad["address"], Textarea(Name("address"), g.Attr("rows", "3"))),
				formRow("Phone", false, bad["phone"], Input(Type("tel"), Name("phone"))),
				formRow("Email", false, bad["email"], Input(Type("email"), Name("email"))),
				text("occupation", "Occupation", false),
			),
			FieldSet(Legend(g.Text("Spouse")),
				text("spouse_name", "Name", false),
				date("spouse_date_of_birth", "Date of birth"),
				date("spouse_date_of_baptism", "Date of baptism"),
				date("spouse_date_of_confirmation", "Date of confirmation"),
				formRow("Phone", false, bad["spouse_phone"], Input(Type("tel"), Name("spouse_phone"))),
				formRow("Email", false, bad["spouse_email"], Input(Type("email"), Name("spouse_email"))),
			),
			FieldSet(Legend(g.Text("Other household members")),
				g.Group(members),
			),
			Button(Type("submit"), Class("button primary"), g.Text("Send registration")),
		),
	)
}

func SignInPage(props LayoutProps, email, errMsg string) g.Node {
	return Layout(props,
		H1(g.Text("Staff sign in")),
		g.If(errMsg != "", P(Class("text-error"), g.Text(errMsg))),
		g.El("form", Method("post"), Action("/signin"),
			formRow("Email", true, "", Input(Type("email"), Name("email"), Value(email), Required())),
			formRow("Password", true, "", Input(Type("password"), Name("password"), Required())),
			Button(Type("submit"), Class("button primary"), g.Text("Sign in")),
		),
		P(Small(Class("text-grey"), g.Text("Signing in stores a session cookie on this device so the admin panel knows who you are. Sign out to remove it."))),
	)
}

func formRow(label string, required bool, problem string, input g.Node) g.Node {
	return P(
		g.El("label",
			g.Text(label), g.If(required, Span(Class("text-error"), g.Text(" *"))),
			input,
		),
		g.If(problem != "", Small(Class("text-error"), g.Text(problem))),
	)
}

func churchName(mass *database.MassSettings) string {
	if mass == nil || mass.ChurchName == "" {
		return constants.APP_NAME
	}
	return mass.ChurchName
}

func publishedOn(n database.News) string {
	if n.PublishedAt == nil {
		return "Draft"
	}
	return formatDate(*n.PublishedAt)
}

func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func firstLine(s string) string {
	if l := lines(s); len(l) > 0 {
		return l[0]
	}
	return ""
}

func limit[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
