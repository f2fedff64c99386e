package cli

// indexHTML is the viewer page. Node positions are exchanged in Graphviz
// points; inside the SVG's top group y grows upwards, hence the sign flip.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>kgviz</title>
<style>
  body { margin: 0; font: 14px system-ui, sans-serif; background: #fafafa; }
  header { display: flex; gap: 8px; align-items: center; padding: 8px 12px; border-bottom: 1px solid #e0e0e0; background: #fff; }
  header .status { margin-left: auto; color: #757575; }
  #diagram { padding: 12px; }
  #diagram svg { max-width: 100%; height: auto; }
  #diagram g.node { cursor: grab; }
</style>
</head>
<body>
<header>
  <strong>kgviz</strong>
  <button id="step">Step</button>
  <button id="reload">Reload</button>
  <label><input type="checkbox" id="detailed"> details</label>
  <span class="status" id="status"></span>
</header>
<div id="diagram"></div>
<script>
const diagram = document.getElementById("diagram");
const status = document.getElementById("status");
const detailed = document.getElementById("detailed");

async function draw() {
  const res = await fetch("graph.svg" + (detailed.checked ? "?detailed=1" : ""));
  if (!res.ok) { status.textContent = (await res.json()).error; return; }
  diagram.innerHTML = await res.text();
  const scene = await (await fetch("graph.json")).json();
  const broken = scene.links.filter(l => l.broken).length;
  status.textContent = scene.nodes.length + " entities · " + scene.links.length + " relationships" +
    (broken ? " · " + broken + " broken" : "");
  bindDrag();
}

async function post(path, method) {
  const res = await fetch(path, { method: method || "POST" });
  if (!res.ok) { status.textContent = (await res.json()).error; return false; }
  return true;
}

function bindDrag() {
  const svg = diagram.querySelector("svg");
  const root = svg && svg.querySelector("g.graph");
  if (!root) return;
  root.querySelectorAll("g.node").forEach(node => {
    const id = node.querySelector("title").textContent;
    if (id.startsWith("missing:")) return;
    node.addEventListener("mousedown", ev => {
      ev.preventDefault();
      const start = point(svg, root, ev);
      let last = start;
      const move = e => {
        last = point(svg, root, e);
        node.setAttribute("transform", "translate(" + (last.x - start.x) + " " + (last.y - start.y) + ")");
      };
      const up = async e => {
        window.removeEventListener("mousemove", move);
        window.removeEventListener("mouseup", up);
        const q = new URLSearchParams({ x: last.x, y: -last.y });
        if (!(await post("nodes/" + encodeURIComponent(id) + "/pin?" + q))) return;
        if (!e.shiftKey) await post("nodes/" + encodeURIComponent(id) + "/pin", "DELETE");
        await draw();
      };
      window.addEventListener("mousemove", move);
      window.addEventListener("mouseup", up);
    });
  });
}

function point(svg, root, ev) {
  const p = svg.createSVGPoint();
  p.x = ev.clientX; p.y = ev.clientY;
  return p.matrixTransform(root.getScreenCTM().inverse());
}

document.getElementById("step").onclick = async () => { if (await post("tick")) await draw(); };
document.getElementById("reload").onclick = async () => { if (await post("reload")) await draw(); };
detailed.onchange = draw;
draw();
</script>
</body>
</html>
`
