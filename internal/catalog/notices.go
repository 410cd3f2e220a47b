package catalog

// Notice banners stamped onto every degree document at import time. The
// front end renders them around the year tables.
const (
	NoticeApproved = "Approved: "
	NoticeRevised  = "Revised: Tuesday, August 20th, 2024"

	NoticeAboveYearOne = "Important Notice: Register in the Business Foundation Courses listed below in thier posted sequence or sooner! " +
		"Business Foundation courses are listed in BOLD and an * next to thier name."
	NoticeBelowYearTwo = "Students must be admitted into RCVCoBE to be able to register for the Advanced Business Courses as shown on the next page. " +
		"** Apply to be admitted into RCVCoBE at https://www.utrgv.edu/cobe/undergrauate/apply-for-admission **"
	NoticeAboveYearThree = "Students must be admitted into RCVCoBE to be able to register for the Advanced Business Courses as shown on this page. " +
		"For questions contact the RCVCoBE Coordinators at: business.advising@utrgv.edu"
	NoticeAboveYearFour = "Students needs to review all pending course prerequisites for thier major using the Roadmap and Degree Works. " +
		"Students will need to request approval for MGMT 4389 three weeks before registration begins by emailing business.advising@utrgv.edu"
)

// Notices maps document field to banner text.
func Notices() map[string]string {
	return map[string]string{
		"approved":       NoticeApproved,
		"revised":        NoticeRevised,
		"aboveYearOne":   NoticeAboveYearOne,
		"belowYearTwo":   NoticeBelowYearTwo,
		"aboveYearThree": NoticeAboveYearThree,
		"aboveYearFour":  NoticeAboveYearFour,
	}
}
