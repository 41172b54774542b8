package util

import "time"

// DateLayout 은 프로필 lastActive 필드 형식이다.
const DateLayout = "2006-01-02"

var ictLocation *time.Location

func init() {
	var err error
	ictLocation, err = time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		ictLocation = time.FixedZone("ICT", 7*60*60)
	}
}

// FormatDateICT 는 ICT 기준 날짜 문자열(YYYY-MM-DD)이다.
func FormatDateICT(t time.Time) string {
	return t.In(ictLocation).Format(DateLayout)
}
