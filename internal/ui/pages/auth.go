package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/a-h/templ"
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"

	"github.com/newsboard/newsboard/internal/ui"
)

type LoginData struct {
	Username string
	Error    string
}

func Login(data LoginData) templ.Component {
	return ui.Page(func(ctx context.Context) g.Node {
		return layout(ctx, "เข้าสู่ระบบ",
			Div(Class("mx-auto max-w-sm rounded border bg-white p-6"),
				H1(Class("mb-4 text-xl font-semibold"), g.Text("เข้าสู่ระบบผู้ดูแล")),
				alert("error", data.Error),
				form(Method("post"), Action("/admin/login"), Class("space-y-4"),
					csrfField(ctx),
					textInput("username", "ชื่อผู้ใช้", data.Username, "", Required(), AutoComplete("username")),
					textInput("password", "รหัสผ่าน", "", "", Type("password"), Required(), AutoComplete("current-password")),
					button("เข้าสู่ระบบ", "w-full"),
				),
			),
		)
	})
}

type VerifyData struct {
	Error  string
	Expiry time.Duration
}

func Verify(data VerifyData) templ.Component {
	return ui.Page(func(ctx context.Context) g.Node {
		return layout(ctx, "ยืนยันรหัส OTP",
			Div(Class("mx-auto max-w-sm rounded border bg-white p-6"),
				H1(Class("mb-2 text-xl font-semibold"), g.Text("ยืนยันรหัส OTP")),
				P(Class("mb-4 text-sm text-gray-600"),
					g.Text(fmt.Sprintf("กรุณากรอกรหัส 6 หลักที่ส่งไปยังอีเมลของคุณ รหัสมีอายุ %d นาที", int(data.Expiry.Minutes()))),
				),
				alert("error", data.Error),
				form(Method("post"), Action("/admin/verify-2fa"), Class("space-y-4"),
					csrfField(ctx),
					textInput("otp", "รหัส OTP", "", "",
						Required(), AutoComplete("one-time-code"),
						g.Attr("inputmode", "numeric"), Pattern("[0-9]{6}"), MaxLength("6"),
					),
					button("ยืนยัน", "w-full"),
				),
				P(Class("mt-4 text-sm"), A(Class("text-blue-600"), Href("/admin/login"), g.Text("เข้าสู่ระบบใหม่"))),
			),
		)
	})
}

// textInput renders a labelled input; errMsg is shown below it when set.
func textInput(name, caption, value, errMsg string, attrs ...g.Node) g.Node {
	return Div(
		label(For(name), Class("mb-1 block text-sm font-medium"), g.Text(caption)),
		Input(
			append([]g.Node{
				ID(name), Name(name), Value(value),
				ui.Class("w-full rounded border px-3 py-2", classIf(errMsg != "", "border-red-500")),
			}, attrs...)...,
		),
		g.If(errMsg != "", P(Class("mt-1 text-sm text-red-600"), g.Text(errMsg))),
	)
}
