package service

import (
	"fmt"
	"time"
)

func otpEmailTemplate(code string, ttl time.Duration, appName string) (string, string) {
	minutes := int(ttl.Minutes())
	subject := fmt.Sprintf("🔑 รหัสยืนยันตัวตน (OTP) - %s Admin Login", appName)
	body := fmt.Sprintf(`รหัส OTP ของคุณคือ: %s (มีอายุ %d นาที)

หากคุณไม่ได้พยายามเข้าสู่ระบบ กรุณาเพิกเฉยต่ออีเมลฉบับนี้

%s`, code, minutes, appName)

	return subject, body
}
