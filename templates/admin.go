package templates

import (
	"encoding/json"
	"fmt"

	"churchsite/database"
	"churchsite/registration"

	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

type DashboardCounts struct {
	News           int
	Events         int
	Albums         int
	PendingMembers int
}

func AdminDashboard(props LayoutProps, c DashboardCounts) g.Node {
	tile := func(label string, n int, href string) g.Node {
		return Div(Class("col card"), H2(g.Textf("%d", n)), P(A(Href(href), g.Text(label))))
	}
	return Layout(props,
		H1(g.Text("Parish dashboard")),
		Div(Class("row"),
			tile("News articles", c.News, "/admin/news"),
			tile("Events", c.Events, "/admin/events"),
			tile("Albums", c.Albums, "/admin/albums"),
			tile("Pending memberships", c.PendingMembers, "/admin/membership?status=pending"),
		),
	)
}

func AdminNewsList(props LayoutProps, news []database.News) g.Node {
	return Layout(props,
		H1(g.Text("News")),
		P(A(Href("/admin/news/new"), Class("button primary"), g.Text("New article"))),
		Table(
			THead(Tr(Th(g.Text("Title")), Th(g.Text("Category")), Th(g.Text("Status")), Th(g.Text("Published")), Th())),
			TBody(g.Group(g.Map(news, func(n database.News) g.Node {
				return Tr(
					Td(A(Href(fmt.Sprintf("/admin/news/%d", n.ID)), g.Text(n.Title))),
					Td(g.Text(n.Category)),
					Td(g.Text(n.Status)),
					Td(g.Text(publishedOn(n))),
					Td(deleteButton(fmt.Sprintf("/admin/news/%d/delete", n.ID))),
				)
			}))),
		),
	)
}

// NewsForm edits n, or creates an article when n is nil.
func NewsForm(props LayoutProps, n *database.News, errMsg string) g.Node {
	action := "/admin/news/new"
	if n == nil {
		n = &database.News{Status: database.NewsStatusDraft}
	} else if n.ID != 0 {
		action = fmt.Sprintf("/admin/news/%d", n.ID)
	}

	return Layout(props,
		H1(g.If(n.ID == 0, g.Text("New article")), g.If(n.ID != 0, g.Text("Edit article"))),
		g.If(errMsg != "", P(Class("text-error"), g.Text(errMsg))),
		g.El("form", Method("post"), Action(action), g.Attr("enctype", "multipart/form-data"),
			formRow("Title", true, "", Input(Type("text"), Name("title"), Value(n.Title), Required())),
			formRow("Summary", false, "", Textarea(Name("description"), g.Attr("rows", "2"), g.Text(n.Description))),
			formRow("Content (Markdown)", false, "", Textarea(Name("content"), g.Attr("rows", "14"), g.Text(n.Content))),
			formRow("Category", false, "", Input(Type("text"), Name("category"), Value(n.Category))),
			formRow("Author", false, "", Input(Type("text"), Name("author"), Value(n.Author))),
			formRow("Status", true, "", statusSelect(n.Status, database.NewsStatusDraft, database.NewsStatusPublished)),
			imageInputs(n.ImageURL),
			Button(Type("submit"), Class("button primary"), g.Text("Save")),
		),
	)
}

func AdminEventsList(props LayoutProps, events []database.Event, registrations map[uint]int64) g.Node {
	return Layout(props,
		H1(g.Text("Events")),
		P(A(Href("/admin/events/new"), Class("button primary"), g.Text("New event"))),
		Table(
			THead(Tr(Th(g.Text("Title")), Th(g.Text("Date")), Th(g.Text("Status")), Th(g.Text("Registrations")), Th())),
			TBody(g.Group(g.Map(events, func(e database.Event) g.Node {
				return Tr(
					Td(A(Href(fmt.Sprintf("/admin/events/%d", e.ID)), g.Text(e.Title))),
					Td(g.Text(inputDate(e.Date))),
					Td(g.Text(e.Status)),
					Td(A(Href(fmt.Sprintf("/admin/events/%d/registrations", e.ID)), g.Textf("%d", registrations[e.ID]))),
					Td(deleteButton(fmt.Sprintf("/admin/events/%d/delete", e.ID))),
				)
			}))),
		),
	)
}

// EventForm edits e, or creates an event when e is nil. The registration form
// fields are edited as JSON.
func EventForm(props LayoutProps, e *database.Event, mode registration.Mode, errMsg string) g.Node {
	action := "/admin/events/new"
	if e == nil {
		e = &database.Event{Status: database.EventStatusDraft}
	} else if e.ID != 0 {
		action = fmt.Sprintf("/admin/events/%d", e.ID)
	}

	fields := mode.Fields()
	if fields == nil {
		fields = registration.DefaultFields()
	}
	fieldsJSON, _ := json.MarshalIndent(fields, "", "  ")

	kind := mode.Kind()
	option := func(k registration.Kind, label string) g.Node {
		return Option(Value(string(k)), g.If(kind == k, Selected()), g.Text(label))
	}

	return Layout(props,
		H1(g.If(e.ID == 0, g.Text("New event")), g.If(e.ID != 0, g.Text("Edit event"))),
		g.If(errMsg != "", P(Class("text-error"), g.Text(errMsg))),
		g.El("form", Method("post"), Action(action), g.Attr("enctype", "multipart/form-data"),
			formRow("Title", true, "", Input(Type("text"), Name("title"), Value(e.Title), Required())),
			formRow("Description", false, "", Textarea(Name("description"), g.Attr("rows", "6"), g.Text(e.Description))),
			formRow("Date", true, "", Input(Type("date"), Name("date"), Value(inputDate(e.Date)), Required())),
			formRow("Time", false, "", Input(Type("text"), Name("time"), Value(e.Time), Placeholder("10:00 AM"))),
			formRow("Location", false, "", Input(Type("text"), Name("location"), Value(e.Location))),
			formRow("Category", false, "", Input(Type("text"), Name("category"), Value(e.Category))),
			formRow("Who should attend", false, "", Input(Type("text"), Name("attendees"), Value(e.Attendees))),
			formRow("Status", true, "", statusSelect(e.Status, database.EventStatusDraft, database.EventStatusUpcoming)),
			imageInputs(e.ImageURL),
			FieldSet(Legend(g.Text("Registration")),
				formRow("Mode", true, "", Select(Name("registration_mode"),
					option(registration.KindNone, "No registration"),
					option(registration.KindForm, "Registration form"),
					option(registration.KindExternalLink, "External link"),
				)),
				formRow("External link", false, "", Input(Type("url"), Name("external_link"), Value(mode.Link()))),
				formRow("Form fields (JSON)", false, "", Textarea(Name("registration_fields"), g.Attr("rows", "12"), g.Text(string(fieldsJSON)))),
			),
			Button(Type("submit"), Class("button primary"), g.Text("Save")),
		),
	)
}

func RegistrationsPage(props LayoutProps, e *database.Event, fields []registration.FormField, regs []database.EventRegistration) g.Node {
	return Layout(props,
		H1(g.Textf("Registrations for %s", e.Title)),
		P(
			g.Textf("%d registrations · ", len(regs)),
			A(Href(fmt.Sprintf("/admin/events/%d/registrations.csv", e.ID)), g.Text("Download CSV")),
		),
		Table(
			THead(Tr(
				Th(g.Text("Registered")),
				g.Group(g.Map(fields, func(f registration.FormField) g.Node { return Th(g.Text(f.Label)) })),
			)),
			TBody(g.Group(g.Map(regs, func(r database.EventRegistration) g.Node {
				data := r.RegistrationData.Data()
				return Tr(
					Td(g.Text(r.CreatedAt.Format("2006-01-02 15:04"))),
					g.Group(g.Map(fields, func(f registration.FormField) g.Node { return Td(g.Text(data[f.ID])) })),
				)
			}))),
		),
	)
}

func AdminAlbumsList(props LayoutProps, albums []database.Album) g.Node {
	return Layout(props,
		H1(g.Text("Albums")),
		P(A(Href("/admin/albums/new"), Class("button primary"), g.Text("New album"))),
		Table(
			THead(Tr(Th(g.Text("Title")), Th(g.Text("Date")), Th(g.Text("Photos")), Th())),
			TBody(g.Group(g.Map(albums, func(a database.Album) g.Node {
				return Tr(
					Td(A(Href(fmt.Sprintf("/admin/albums/%d", a.ID)), g.Text(a.Title))),
					Td(g.Text(inputDate(a.Date))),
					Td(g.Textf("%d", a.ImageCount)),
					Td(deleteButton(fmt.Sprintf("/admin/albums/%d/delete", a.ID))),
				)
			}))),
		),
	)
}

// AlbumForm edits a, or creates an album when a is nil. Existing images can
// be ticked for removal and new ones uploaded in the same submit.
func AlbumForm(props LayoutProps, a *database.Album, images []database.AlbumImage, errMsg string) g.Node {
	action := "/admin/albums/new"
	if a == nil {
		a = &database.Album{}
	} else if a.ID != 0 {
		action = fmt.Sprintf("/admin/albums/%d", a.ID)
	}

	return Layout(props,
		H1(g.If(a.ID == 0, g.Text("New album")), g.If(a.ID != 0, g.Text("Edit album"))),
		g.If(errMsg != "", P(Class("text-error"), g.Text(errMsg))),
		g.El("form", Method("post"), Action(action), g.Attr("enctype", "multipart/form-data"),
			formRow("Title", true, "", Input(Type("text"), Name("title"), Value(a.Title), Required())),
			formRow("Description", false, "", Textarea(Name("description"), g.Attr("rows", "3"), g.Text(a.Description))),
			formRow("Date", false, "", Input(Type("date"), Name("date"), Value(inputDate(a.Date)))),
			formRow("Category", false, "", Input(Type("text"), Name("category"), Value(a.Category))),
			g.If(len(images) > 0, FieldSet(Legend(g.Text("Photos (tick to remove)")),
				Div(Class("row"), g.Group(g.Map(images, func(img database.AlbumImage) g.Node {
					return Div(Class("col-3"),
						g.El("label",
							Img(Src(img.ImageURL), Alt(fmt.Sprintf("photo %d", img.ImageOrder))),
							Input(Type("checkbox"), Name("remove_image"), Value(fmt.Sprintf("%d", img.ID))),
						),
					)
				}))),
			)),
			formRow("Add photos (10 MB each)", a.ID == 0, "", Input(Type("file"), Name("images"), g.Attr("accept", "image/*"), g.Attr("multiple"))),
			Button(Type("submit"), Class("button primary"), g.Text("Save")),
		),
	)
}

func MembershipList(props LayoutProps, list []database.MembershipRegistration, status string) g.Node {
	filter := func(s, label string) g.Node {
		cls := "button outline"
		if s == status {
			cls = "button primary"
		}
		href := "/admin/membership"
		if s != "" {
			href += "?status=" + s
		}
		return A(Href(href), Class(cls), g.Text(label))
	}

	return Layout(props,
		H1(g.Text("Membership registrations")),
		P(
			filter("", "All"),
			filter(database.MembershipPending, "Pending"),
			filter(database.MembershipApproved, "Approved"),
			filter(database.MembershipRejected, "Rejected"),
		),
		Table(
			THead(Tr(Th(g.Text("Name")), Th(g.Text("Email")), Th(g.Text("Phone")), Th(g.Text("Status")), Th(g.Text("Received")))),
			TBody(g.Group(g.Map(list, func(m database.MembershipRegistration) g.Node {
				return Tr(
					Td(A(Href(fmt.Sprintf("/admin/membership/%d", m.ID)), g.Text(m.FullName()))),
					Td(g.Text(m.Email)),
					Td(g.Text(m.Phone)),
					Td(g.Text(m.RegistrationStatus)),
					Td(g.Text(inputDate(m.CreatedAt))),
				)
			}))),
		),
	)
}

func MembershipDetail(props LayoutProps, m *database.MembershipRegistration) g.Node {
	row := func(label, value string) g.Node {
		return g.If(value != "", Tr(Th(g.Text(label)), Td(g.Text(value))))
	}
	members := m.AdditionalMembers.Data()

	var processed string
	if m.ProcessedAt != nil {
		processed = fmt.Sprintf("%s by %s", m.ProcessedAt.Format("2006-01-02 15:04"), m.ProcessedBy)
	}

	return Layout(props,
		H1(g.Text(m.FullName())),
		P(Span(Class("tag"), g.Text(m.RegistrationStatus))),
		Table(TBody(
			row("Date of birth", m.DateOfBirth),
			row("Date of baptism", m.DateOfBaptism),
			row("Date of confirmation", m.DateOfConfirmation),
			row("Gender", m.Gender),
			row("Marital status", m.MaritalStatus),
			row("Address", m.Address),
			row("Phone", m.Phone),
			row("Email", m.Email),
			row("Occupation", m.Occupation),
			row("Spouse", m.SpouseName),
			row("Spouse date of birth", m.SpouseDateOfBirth),
			row("Spouse date of baptism", m.SpouseDateOfBaptism),
			row("Spouse date of confirmation", m.SpouseDateOfConfirmation),
			row("Spouse phone", m.SpousePhone),
			row("Spouse email", m.SpouseEmail),
			row("Processed", processed),
		)),
		g.If(len(members) > 0, g.Group([]g.Node{
			H3(g.Text("Household members")),
			Table(
				THead(Tr(Th(g.Text("Name")), Th(g.Text("Born")), Th(g.Text("Baptised")), Th(g.Text("Confirmed")))),
				TBody(g.Group(g.Map(members, func(am database.AdditionalMember) g.Node {
					return Tr(Td(g.Text(am.Name)), Td(g.Text(am.DateOfBirth)), Td(g.Text(am.DateOfBaptism)), Td(g.Text(am.DateOfConfirmation)))
				}))),
			),
		})),
		H3(g.Text("Decision")),
		g.El("form", Method("post"), Action(fmt.Sprintf("/admin/membership/%d/status", m.ID)),
			formRow("Status", true, "", statusSelect(m.RegistrationStatus,
				database.MembershipPending, database.MembershipApproved, database.MembershipRejected)),
			formRow("Notes", false, "", Textarea(Name("notes"), g.Attr("rows", "3"), g.Text(m.Notes))),
			Button(Type("submit"), Class("button primary"), g.Text("Save decision")),
		),
	)
}

func MassForm(props LayoutProps, mass *database.MassSettings, saved bool) g.Node {
	if mass == nil {
		mass = &database.MassSettings{}
	}
	return Layout(props,
		H1(g.Text("Mass settings")),
		g.If(saved, P(Class("text-success"), g.Text("Saved."))),
		g.El("form", Method("post"), Action("/admin/mass"),
			formRow("Church name", false, "", Input(Type("text"), Name("church_name"), Value(mass.ChurchName))),
			formRow("Mass times (one per line)", false, "", Textarea(Name("mass_time"), g.Attr("rows", "6"), g.Text(mass.MassTime))),
			formRow("Address", false, "", Textarea(Name("address"), g.Attr("rows", "3"), g.Text(mass.Address))),
			formRow("Email", false, "", Input(Type("email"), Name("email"), Value(mass.Email))),
			Button(Type("submit"), Class("button primary"), g.Text("Save")),
		),
	)
}

func statusSelect(current string, statuses ...string) g.Node {
	return Select(Name("status"), g.Group(g.Map(statuses, func(s string) g.Node {
		return Option(Value(s), g.If(s == current, Selected()), g.Text(s))
	})))
}

// imageInputs lets the admin either upload a cover image or paste the URL
// returned by the presign endpoint.
func imageInputs(current string) g.Node {
	return g.Group([]g.Node{
		g.If(current != "", P(Img(Src(current), Alt("current image"), Style("max-width: 240px;")))),
		formRow("Image URL", false, "", Input(Type("url"), Name("image_url"), Value(current))),
		formRow("Or upload an image (5 MB max)", false, "", Input(Type("file"), Name("image"), g.Attr("accept", "image/*"))),
	})
}

func deleteButton(action string) g.Node {
	return g.El("form", Method("post"), Action(action), Style("display: inline;"),
		Button(Type("submit"), Class("button error"), g.Attr("onclick", "return confirm('Delete this for good?');"), g.Text("Delete")),
	)
}
