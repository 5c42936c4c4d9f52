package model

// Counter names one analytics counter on a student record.
type Counter string

const (
	CounterVisits          Counter = "visitCount"
	CounterLinkedInClicks  Counter = "linkedinClicks"
	CounterGitHubClicks    Counter = "githubClicks"
	CounterInstagramClicks Counter = "instagramClicks"
	CounterTikTokClicks    Counter = "tiktokClicks"
	CounterYouTubeClicks   Counter = "youtubeClicks"
)

// Platform is an outbound link target that has a click-through counter.
type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformGitHub    Platform = "github"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformYouTube   Platform = "youtube"
)

// Counter returns the click counter for p. ok is false for unknown platforms.
func (p Platform) Counter() (c Counter, ok bool) {
	switch p {
	case PlatformLinkedIn:
		return CounterLinkedInClicks, true
	case PlatformGitHub:
		return CounterGitHubClicks, true
	case PlatformInstagram:
		return CounterInstagramClicks, true
	case PlatformTikTok:
		return CounterTikTokClicks, true
	case PlatformYouTube:
		return CounterYouTubeClicks, true
	}
	return "", false
}

// URL returns the student's profile URL on platform p, or "" if unset.
func (p Platform) URL(s *Student) string {
	switch p {
	case PlatformLinkedIn:
		return s.LinkedIn
	case PlatformGitHub:
		return s.GitHub
	case PlatformInstagram:
		return s.Instagram
	case PlatformTikTok:
		return s.TikTok
	case PlatformYouTube:
		return s.YouTube
	}
	return ""
}
