package service

import (
	"context"
	"log"
	"net"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"claimlens-backend/models"
)

// DefaultTrustedDomains is the allow-list of academic publishers,
// government and health agencies, and preprint servers accepted as sources
var DefaultTrustedDomains = []string{
	"cdc.gov",
	"who.int",
	"epa.gov",
	"fda.gov",
	"nih.gov",
	"ncbi.nlm.nih.gov",
	"pubmed.ncbi.nlm.nih.gov",
	"nejm.org",
	"nature.com",
	"science.org",
	"thelancet.com",
	"bmj.com",
	"jamanetwork.com",
	"pnas.org",
	"plos.org",
	"cell.com",
	"sciencedirect.com",
	"springer.com",
	"link.springer.com",
	"onlinelibrary.wiley.com",
	"cochranelibrary.com",
	"arxiv.org",
	"biorxiv.org",
	"medrxiv.org",
}

// peer-reviewed publisher signal used in relevance scoring
var peerReviewedDomains = map[string]bool{
	"nejm.org":                true,
	"nature.com":              true,
	"science.org":             true,
	"thelancet.com":           true,
	"bmj.com":                 true,
	"jamanetwork.com":         true,
	"pnas.org":                true,
	"plos.org":                true,
	"cell.com":                true,
	"sciencedirect.com":       true,
	"springer.com":            true,
	"link.springer.com":       true,
	"onlinelibrary.wiley.com": true,
	"cochranelibrary.com":     true,
	"pubmed.ncbi.nlm.nih.gov": true,
	"ncbi.nlm.nih.gov":        true,
}

var journalNames = map[string]string{
	"nejm.org":            "New England Journal of Medicine",
	"nature.com":          "Nature",
	"science.org":         "Science",
	"thelancet.com":       "The Lancet",
	"bmj.com":             "BMJ",
	"jamanetwork.com":     "JAMA",
	"pnas.org":            "PNAS",
	"cochranelibrary.com": "Cochrane Library",
}

// SourceFetcher turns web search results into validated, relevance-ranked
// sources for a claim
type SourceFetcher struct {
	search         SearchClient
	allowedDomains []string
	maxSources     int
	agreement      AgreementConfig
}

// NewSourceFetcher creates a fetcher over the default allow-list. The
// agreement config drives stance tagging of search hits.
func NewSourceFetcher(search SearchClient, agreement AgreementConfig) *SourceFetcher {
	return &SourceFetcher{
		search:         search,
		allowedDomains: DefaultTrustedDomains,
		maxSources:     3,
		agreement:      agreement,
	}
}

// FetchSources searches for a claim and returns the top sources that pass
// the trust checks. Any failure (no search client, network error, bad
// response) degrades to an empty list; source fetching is never fatal.
func (f *SourceFetcher) FetchSources(ctx context.Context, claimLine string) []models.Source {
	if f.search == nil {
		return nil
	}

	topic, text, ok := ParseClaim(claimLine)
	if !ok {
		text = claimLine
	}
	query := text
	if ok {
		query = topic + " " + text
	}

	results, err := f.search.Search(ctx, query)
	if err != nil {
		log.Printf("Warning: source search failed for %q: %v", topic, err)
		return nil
	}

	var sources []models.Source
	for _, result := range results {
		cleanURL, domain, ok := f.validateURL(result.Link)
		if !ok {
			log.Printf("[SOURCES] rejected %s", result.Link)
			continue
		}

		source := models.Source{
			Title:          result.Title,
			URL:            cleanURL,
			Domain:         domain,
			Summary:        result.Snippet,
			PublishedDate:  result.Date,
			IsPeerReviewed: isPeerReviewed(domain),
			Journal:        journalNames[baseDomain(domain)],
			Stance:         classifySourceStance(result.Title+" "+result.Snippet, f.agreement),
		}
		if year, ok := extractYear(result.Date + " " + result.Snippet); ok {
			source.Year = year
		}
		if authors := extractAuthors(result.Snippet); authors != "" {
			source.Authors = authors
		}
		source.Relevance = relevanceScore(query, source)
		sources = append(sources, source)
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Relevance > sources[j].Relevance
	})
	if len(sources) > f.maxSources {
		sources = sources[:f.maxSources]
	}
	return sources
}

// validateURL enforces HTTPS, rejects loopback and internal hosts, requires
// an allow-listed domain and strips URL fragments
func (f *SourceFetcher) validateURL(raw string) (cleanURL, domain string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", "", false
	}
	if u.Scheme != "https" {
		return "", "", false
	}

	host := strings.ToLower(u.Hostname())
	if isInternalHost(host) {
		return "", "", false
	}

	host = strings.TrimPrefix(host, "www.")
	if !f.domainAllowed(host) {
		return "", "", false
	}

	u.Fragment = ""
	return u.String(), host, true
}

func (f *SourceFetcher) domainAllowed(host string) bool {
	for _, allowed := range f.allowedDomains {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func isInternalHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
	}
	return false
}

func isPeerReviewed(domain string) bool {
	if peerReviewedDomains[domain] {
		return true
	}
	return peerReviewedDomains[baseDomain(domain)]
}

// baseDomain collapses subdomains onto a known allow-list entry
func baseDomain(host string) string {
	parts := strings.Split(host, ".")
	for i := 0; i < len(parts)-1; i++ {
		candidate := strings.Join(parts[i:], ".")
		if peerReviewedDomains[candidate] || journalNames[candidate] != "" {
			return candidate
		}
	}
	return host
}

// relevanceScore combines term overlap, phrase match, recency and metadata
// signals into a single [0,1] rating
func relevanceScore(query string, source models.Source) float64 {
	score := 0.6*termOverlap(query, source.Title) + 0.4*termOverlap(query, source.Summary)

	haystack := strings.ToLower(source.Title + " " + source.Summary)
	if strings.Contains(haystack, strings.ToLower(strings.TrimSpace(query))) {
		score += 0.3
	}
	if isRecent(source.PublishedDate, source.Year) {
		score += 0.2
	}
	if source.Authors != "" || source.Journal != "" {
		score += 0.3
	}
	if source.IsPeerReviewed {
		score += 0.3
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// termOverlap is the fraction of query terms appearing in text
func termOverlap(query, text string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}
	lowered := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		term = strings.Trim(term, ".,!?;:\"'()")
		if len(term) < 3 {
			continue
		}
		if strings.Contains(lowered, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func isRecent(date string, year int) bool {
	if strings.Contains(date, "ago") {
		return true
	}
	cutoff := time.Now().Year() - 3
	return year >= cutoff
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

func extractYear(text string) (int, bool) {
	match := yearPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	year, err := strconv.Atoi(match)
	if err != nil || year > time.Now().Year()+1 {
		return 0, false
	}
	return year, true
}

var etAlPattern = regexp.MustCompile(`[A-Z][A-Za-z-]+(?: [A-Z][A-Za-z-]+)*,? et al\.?`)

func extractAuthors(snippet string) string {
	if strings.Contains(snippet, "et al") {
		if m := etAlPattern.FindString(snippet); m != "" {
			return m
		}
		return "et al."
	}
	return ""
}

// classifySourceStance tags a search hit as supporting, refuting, or
// neutral toward the claim based on the snippet wording
func classifySourceStance(text string, cfg AgreementConfig) string {
	lowered := strings.ToLower(text)
	if containsNegationKeyword(lowered, cfg.NegationKeywords) {
		return "refute"
	}
	if sentimentScore(lowered, cfg) > cfg.SupportThreshold {
		return "support"
	}
	return "neutral"
}
