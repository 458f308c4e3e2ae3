package pages

import (
	"context"
	"strconv"
	"time"

	"github.com/a-h/templ"
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"

	"github.com/newsboard/newsboard/internal/model"
	"github.com/newsboard/newsboard/internal/ui"
	"github.com/newsboard/newsboard/internal/upload"
	"github.com/newsboard/newsboard/internal/validation"
)

var successMessages = map[string]string{
	"upload": "เพิ่มข่าวสารใหม่เรียบร้อยแล้ว",
	"update": "บันทึกการแก้ไขเรียบร้อยแล้ว",
	"delete": "ลบข่าวสารเรียบร้อยแล้ว",
}

// SuccessMessage maps the ?success= flag of the admin list to its message.
func SuccessMessage(flag string) string {
	if flag == "" {
		return ""
	}
	if msg, ok := successMessages[flag]; ok {
		return msg
	}
	return "ดำเนินการสำเร็จ"
}

type ManageData struct {
	Username string
	Items    []*model.News
	Success  string
	Now      time.Time
	Loc      *time.Location
}

func Manage(data ManageData) templ.Component {
	return ui.Page(func(ctx context.Context) g.Node {
		return layout(ctx, "จัดการข่าวสาร",
			Div(Class("mb-6 flex items-center justify-between"),
				H1(Class("text-2xl font-semibold"), g.Text("จัดการข่าวสาร")),
				A(Href("/admin/upload"), Class("rounded bg-blue-600 px-4 py-2 text-white"), g.Text("เพิ่มข่าวสาร")),
			),
			g.If(data.Username != "", P(Class("mb-4 text-sm text-gray-600"), g.Text("เข้าสู่ระบบในชื่อ "+data.Username))),
			alert("success", SuccessMessage(data.Success)),
			g.If(len(data.Items) == 0, P(Class("text-gray-600"), g.Text("ยังไม่มีข่าวสาร"))),
			g.If(len(data.Items) > 0,
				Table(Class("w-full border bg-white text-sm"),
					THead(Tr(Class("bg-gray-100 text-left"),
						Th(Class("p-2"), g.Text("หัวข้อ")),
						Th(Class("p-2"), g.Text("หมวดหมู่")),
						Th(Class("p-2"), g.Text("ช่วงเวลาเผยแพร่")),
						Th(Class("p-2"), g.Text("สถานะ")),
						Th(Class("p-2"), g.Text("ผู้เข้าชม")),
						Th(Class("p-2")),
					)),
					TBody(g.Map(data.Items, func(n *model.News) g.Node {
						return manageRow(n, data.Now, data.Loc)
					})...),
				),
			),
		)
	})
}

func manageRow(n *model.News, now time.Time, loc *time.Location) g.Node {
	id := strconv.FormatInt(n.ID, 10)
	return Tr(Class("border-t"),
		Td(Class("p-2"), A(Class("text-blue-600"), Href(NewsPath(n.ID, n.Slug)), g.Text(n.Title))),
		Td(Class("p-2"), g.Text(n.Category)),
		Td(Class("p-2 whitespace-nowrap"), g.Text(formatDate(n.StartDate, loc)+" - "+formatDate(n.EndDate, loc))),
		Td(Class("p-2"), statusBadge(n, now)),
		Td(Class("p-2"), g.Text(strconv.FormatInt(n.ViewCount, 10))),
		Td(Class("p-2 whitespace-nowrap"),
			A(Class("mr-3 text-blue-600"), Href("/admin/edit/"+id), g.Text("แก้ไข")),
			A(Class("text-red-600"), Href("/admin/delete/"+id), Data("confirm", "ยืนยันการลบข่าวนี้?"), g.Text("ลบ")),
		),
	)
}

func statusBadge(n *model.News, now time.Time) g.Node {
	text, class := "หมดอายุ", "bg-gray-200 text-gray-700"
	switch {
	case n.Active(now):
		text, class = "เผยแพร่", "bg-green-100 text-green-800"
	case n.Upcoming(now):
		text, class = "รอเผยแพร่", "bg-yellow-100 text-yellow-800"
	}
	return Span(ui.Class("rounded px-2 py-0.5 text-xs", class), g.Text(text))
}

// NewsFormData drives both the upload and the edit form. News is nil for upload.
type NewsFormData struct {
	News       *model.News
	Form       validation.NewsForm
	Errors     validation.Errors
	Error      string
	Categories []string
	Policy     upload.Policy
	FileURL    func(key string) string
}

func NewsForm(data NewsFormData) templ.Component {
	return ui.Page(func(ctx context.Context) g.Node {
		heading, action, submit := "เพิ่มข่าวสาร", "/admin/upload", "บันทึก"
		if data.News != nil {
			heading = "แก้ไขข่าวสาร"
			action = "/admin/update/" + strconv.FormatInt(data.News.ID, 10)
			submit = "บันทึกการแก้ไข"
		}

		return layout(ctx, heading,
			H1(Class("mb-6 text-2xl font-semibold"), g.Text(heading)),
			alert("error", data.Error),
			form(Method("post"), Action(action), g.Attr("enctype", "multipart/form-data"), Class("space-y-4 rounded border bg-white p-6"),
				csrfField(ctx),
				textInput("title", "หัวข้อข่าว", data.Form.Title, data.Errors["title"], Required(), MaxLength("500")),
				categorySelect(data.Categories, data.Form.Category),
				textInput("youtube_link", "ลิงก์ YouTube", data.Form.YoutubeLink, data.Errors["youtube_link"], Type("url"), Placeholder("https://www.youtube.com/watch?v=...")),
				Div(Class("grid gap-4 sm:grid-cols-2"),
					textInput("start_date", "วันที่เริ่มแสดง", data.Form.StartDate, data.Errors["start_date"], Type("datetime-local"), Required()),
					textInput("end_date", "วันที่สิ้นสุด", data.Form.EndDate, data.Errors["end_date"], Type("datetime-local"), Required()),
				),
				existingAttachments(data.News, data.FileURL),
				fileInput(upload.FieldImages, "รูปภาพ (สูงสุด "+strconv.Itoa(data.Policy.MaxImages)+" ไฟล์)", "image/*"),
				fileInput(upload.FieldPDFs, "ไฟล์ PDF (สูงสุด "+strconv.Itoa(data.Policy.MaxPDFs)+" ไฟล์)", "application/pdf"),
				Div(Class("flex gap-3"),
					button(submit),
					A(Href("/admin/news"), Class("rounded border px-4 py-2"), g.Text("ยกเลิก")),
				),
			),
		)
	})
}

func categorySelect(categories []string, selected string) g.Node {
	return Div(
		label(For("category"), Class("mb-1 block text-sm font-medium"), g.Text("หมวดหมู่")),
		Select(ID("category"), Name("category"), Class("w-full rounded border px-3 py-2"),
			g.Group(g.Map(categories, func(c string) g.Node {
				return Option(Value(c), g.If(c == selected, Selected()), g.Text(c))
			})),
		),
	)
}

func fileInput(name, caption, accept string) g.Node {
	return Div(
		label(For(name), Class("mb-1 block text-sm font-medium"), g.Text(caption)),
		Input(Type("file"), ID(name), Name(name), Accept(accept), Multiple(), Class("block w-full text-sm")),
	)
}

func existingAttachments(n *model.News, fileURL func(string) string) g.Node {
	if n == nil || len(n.Attachments) == 0 {
		return nil
	}
	return Div(
		P(Class("mb-2 text-sm font-medium"), g.Text("ไฟล์แนบปัจจุบัน (เลือกเพื่อลบเมื่อบันทึก)")),
		Ul(Class("space-y-2"),
			g.Group(g.Map(n.Attachments, func(a *model.Attachment) g.Node {
				id := strconv.FormatInt(a.ID, 10)
				return Li(Class("flex items-center gap-3"), Data("attachment", id),
					Input(Type("checkbox"), Name("files_to_delete"), Value(id), ID("delete-"+id)),
					g.If(a.FileType == model.FileTypeImage,
						Img(Src(fileURL(a.FilePath)), Alt(a.OriginalName), Class("h-12 w-12 rounded object-cover")),
					),
					label(For("delete-"+id), Class("flex-1 text-sm"),
						A(Href(fileURL(a.FilePath)), Target("_blank"), Class("text-blue-600"), g.Text(displayName(a))),
					),
					Button(Type("button"), Class("text-sm text-red-600"),
						Data("delete-file", id), Data("confirm", "ลบไฟล์นี้ทันที?"),
						g.Text("ลบทันที"),
					),
				)
			})),
		),
	)
}

func displayName(a *model.Attachment) string {
	if a.OriginalName != "" {
		return a.OriginalName
	}
	return upload.BaseName(a.FilePath)
}
