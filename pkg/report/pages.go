package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sw33tLie/booktrend/pkg/ranking"
	"github.com/sw33tLie/booktrend/pkg/series"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const chartJS = "https://cdn.jsdelivr.net/npm/chart.js@4/dist/chart.umd.min.js"

// summary is what the portal shows for one item.
type summary struct {
	Name   string
	Href   string
	Latest series.StatRow
}

type chartLink struct {
	URL   string `json:"url"`
	Score int    `json:"score"`
}

type chartPoint struct {
	Date      string      `json:"date"`
	Label     string      `json:"label"`
	Web       int         `json:"web"`
	Social    int         `json:"social"`
	Sentiment float64     `json:"sentiment"`
	Links     []chartLink `json:"links"`
}

func chartPoints(rows []series.StatRow) []chartPoint {
	points := make([]chartPoint, 0, len(rows))
	for _, r := range rows {
		links := []chartLink{}
		for _, l := range ranking.Parse(r.TopLinks) {
			links = append(links, chartLink{URL: l.Link, Score: l.Score})
		}
		points = append(points, chartPoint{
			Date:      r.Date,
			Label:     r.Date + " " + string(r.TimeSlot),
			Web:       r.WebCount,
			Social:    r.XCount,
			Sentiment: r.Sentiment,
			Links:     links,
		})
	}
	return points
}

func pageLayout(title string, body ...g.Node) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(Lang("ja"),
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title)),
				StyleEl(g.Raw(`
					body { font-family: "Hiragino Sans", "Noto Sans JP", sans-serif; background: #f4f5f7; color: #1f2933; margin: 0; }
					.wrap { max-width: 1100px; margin: 0 auto; padding: 24px; }
					.panel { background: #fff; border-radius: 10px; padding: 16px; margin-bottom: 20px; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
					.grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 16px; }
					.card { display: block; background: #fff; border-radius: 10px; padding: 16px; color: inherit; text-decoration: none; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
					.card:hover { box-shadow: 0 4px 12px rgba(0,0,0,.15); }
					.card h2 { font-size: 1.1rem; margin: 0 0 8px; }
					.muted { color: #7b8794; font-size: .85rem; }
					.metric { display: flex; justify-content: space-between; margin: 4px 0; }
					#links li { margin: 4px 0; word-break: break-all; }
					.range { margin-bottom: 12px; }
					.range button { border: 1px solid #cbd2d9; background: #fff; border-radius: 6px; padding: 4px 12px; margin-right: 6px; cursor: pointer; }
					.range button.active { background: #1f2933; color: #fff; }
					footer { text-align: center; color: #7b8794; font-size: .8rem; padding: 24px 0; }
				`)),
			),
			Body(Div(Class("wrap"), g.Group(body))),
		),
	})
}

func itemPage(name string, rows []series.StatRow) (g.Node, error) {
	payload, err := json.Marshal(chartPoints(rows))
	if err != nil {
		return nil, err
	}

	return pageLayout(name+" - buzz",
		P(A(Href("../"+IndexFile), g.Text("← 一覧へ戻る"))),
		H1(g.Text(name)),
		Div(ID("range"), Class("range"),
			rangeButton("1週間", 7),
			rangeButton("1ヶ月", 30),
			rangeButton("全期間", 0),
		),
		Div(Class("panel"),
			H2(g.Text("X 投稿数 / Web 検索数")),
			Canvas(ID("countChart"), g.Attr("height", "120")),
		),
		Div(Class("panel"),
			H2(g.Text("感情スコア")),
			Canvas(ID("sentimentChart"), g.Attr("height", "80")),
		),
		Div(Class("panel"),
			H2(g.Text("トップリンク")),
			P(ID("linksLabel"), Class("muted"), g.Text("グラフの点をクリックすると、その時点のリンクが表示されます。")),
			Ul(ID("links")),
		),
		Script(Src(chartJS)),
		Script(g.Raw(fmt.Sprintf(`
			const points = %s;
			let visible = points;
			// Chart, value-picker pairs.
			const charts = [];

			function showLinks(index) {
				const p = visible[index];
				const list = document.getElementById('links');
				list.replaceChildren();
				document.getElementById('linksLabel').textContent = p.label;
				if (p.links.length === 0) {
					const li = document.createElement('li');
					li.textContent = 'なし';
					list.appendChild(li);
					return;
				}
				for (const l of p.links) {
					const li = document.createElement('li');
					if (/^https?:\/\//i.test(l.url)) {
						const a = document.createElement('a');
						a.href = l.url;
						a.target = '_blank';
						a.rel = 'noopener noreferrer';
						a.textContent = l.url;
						li.appendChild(a);
					} else {
						li.textContent = l.url;
					}
					li.appendChild(document.createTextNode(' (score: ' + l.score + ')'));
					list.appendChild(li);
				}
			}

			function onPointClick(evt, elements) {
				if (elements.length > 0) {
					showLinks(elements[0].index);
				}
			}

			charts.push(new Chart(document.getElementById('countChart'), {
				type: 'line',
				data: {
					labels: [],
					datasets: [
						{ label: 'X', data: [], yAxisID: 'y', borderColor: '#1d9bf0', backgroundColor: '#1d9bf0', tension: 0.2 },
						{ label: 'Web', data: [], yAxisID: 'y1', borderColor: '#f97316', backgroundColor: '#f97316', borderDash: [4, 4], tension: 0.2 }
					]
				},
				options: {
					responsive: true,
					interaction: { mode: 'index', intersect: false },
					onClick: onPointClick,
					scales: {
						y: { position: 'left', beginAtZero: true, title: { display: true, text: 'X' } },
						y1: { position: 'right', beginAtZero: true, grid: { drawOnChartArea: false }, title: { display: true, text: 'Web' } }
					}
				}
			}), (p) => [p.social, p.web]);

			charts.push(new Chart(document.getElementById('sentimentChart'), {
				type: 'line',
				data: {
					labels: [],
					datasets: [
						{ label: 'sentiment', data: [], borderColor: '#10b981', backgroundColor: '#10b981', tension: 0.2 }
					]
				},
				options: {
					responsive: true,
					interaction: { mode: 'index', intersect: false },
					onClick: onPointClick,
					scales: { y: { min: 0, max: 1.05 } }
				}
			}), (p) => [p.sentiment]);

			function applyRange(days) {
				visible = points;
				if (days > 0 && points.length > 0) {
					const cutoff = new Date(points[points.length - 1].date + 'T00:00:00Z');
					cutoff.setUTCDate(cutoff.getUTCDate() - days + 1);
					const from = cutoff.toISOString().slice(0, 10);
					visible = points.filter(p => p.date >= from);
				}
				for (let i = 0; i < charts.length; i += 2) {
					const chart = charts[i], pick = charts[i + 1];
					chart.data.labels = visible.map(p => p.label);
					chart.data.datasets.forEach((ds, j) => { ds.data = visible.map(p => pick(p)[j]); });
					chart.update();
				}
				document.querySelectorAll('#range button').forEach(b => {
					b.classList.toggle('active', Number(b.dataset.days) === days);
				});
			}

			document.querySelectorAll('#range button').forEach(b => {
				b.addEventListener('click', () => applyRange(Number(b.dataset.days)));
			});
			applyRange(0);
		`, payload))),
	), nil
}

func rangeButton(label string, days int) g.Node {
	return Button(Type("button"), Data("days", strconv.Itoa(days)), g.Text(label))
}

func summaryCard(s summary) g.Node {
	r := s.Latest
	return A(Class("card"), Href(s.Href),
		H2(g.Text(s.Name)),
		P(Class("muted"), g.Text("最新: "+r.Date+" "+string(r.TimeSlot))),
		metric("Web 検索数", strconv.Itoa(r.WebCount)),
		metric("X 投稿数", strconv.Itoa(r.XCount)),
		metric("感情スコア", strconv.FormatFloat(r.Sentiment, 'f', 2, 64)),
	)
}

func metric(label, value string) g.Node {
	return Div(Class("metric"), Span(g.Text(label)), Strong(g.Text(value)))
}

func portalPage(cards []summary, generatedAt time.Time) g.Node {
	return pageLayout("Book Buzz Monitor",
		H1(g.Text("Book Buzz Monitor")),
		Div(Class("grid"), g.Map(cards, summaryCard)),
		Footer(g.Text("最終更新: "+generatedAt.Format("2006-01-02 15:04 MST"))),
	)
}
