package video

// shortcut is one row of the player's keyboard help.
type shortcut struct {
	Action string
	Keys   []string
}

// playerShortcuts mirrors the key handling in playerJS.
var playerShortcuts = []shortcut{
	{"Play / pause", []string{"Space", "K"}},
	{"Back / ahead 5s", []string{"←", "→"}},
	{"Back / ahead 10s", []string{"J", "L"}},
	{"Volume", []string{"↑", "↓"}},
	{"Mute", []string{"M"}},
	{"Captions", []string{"C"}},
	{"Fullscreen", []string{"F"}},
	{"Speed", []string{"<", ">"}},
	{"Next video", []string{"N"}},
	{"Jump to 0-90%", []string{"0", "9"}},
}

// playerCSS styles the chrome drawn over the YouTube IFrame player. Colours
// come from the theme variables so the player follows the visitor's theme.
const playerCSS = `
        .vx-player {
            position: relative;
            aspect-ratio: 16 / 9;
            background: #000;
            border: 4px solid var(--border);
            box-shadow: var(--shadow-large);
            overflow: hidden;
            user-select: none;
        }
        .vx-player #yt-player, .vx-player iframe {
            position: absolute;
            inset: 0;
            width: 100%;
            height: 100%;
            pointer-events: none;
        }
        .vx-layer { position: absolute; inset: 0; display: none; }
        .vx-layer.on { display: flex; align-items: center; justify-content: center; }
        .vx-click { display: flex; z-index: 2; cursor: pointer; }
        .vx-big-play {
            padding: 0.9rem 1.6rem;
            font-size: 1.4rem;
            font-weight: 900;
            text-transform: uppercase;
            color: var(--button-text);
            background: var(--button-bg);
            border: 4px solid var(--border);
            box-shadow: var(--shadow);
            cursor: pointer;
        }
        .vx-player.playing .vx-big-play { display: none; }
        .vx-buffering {
            z-index: 4;
            pointer-events: none;
            font-weight: 900;
            letter-spacing: 0.2em;
            color: #fff;
            text-shadow: 2px 2px 0 #000;
        }
        .vx-failed {
            z-index: 4;
            flex-direction: column;
            gap: 0.5rem;
            color: var(--text-primary);
            background: var(--bg-primary);
            font-weight: 800;
            text-align: center;
            padding: 1rem;
        }
        .vx-upnext {
            z-index: 5;
            flex-direction: column;
            gap: 0.75rem;
            background: var(--bg-primary);
            color: var(--text-primary);
            text-align: center;
            padding: 1rem;
        }
        .vx-upnext small { font-weight: 800; text-transform: uppercase; letter-spacing: 0.15em; }
        .vx-upnext strong { font-size: 1.2rem; max-width: 80%; }
        .vx-upnext b { font-size: 3rem; line-height: 1; }
        .vx-upnext .row { display: flex; gap: 0.75rem; }
        .vx-bar {
            position: absolute;
            left: 0;
            right: 0;
            bottom: 0;
            z-index: 3;
            display: flex;
            align-items: center;
            gap: 0.4rem;
            padding: 0.4rem 0.5rem;
            background: var(--bg-card);
            border-top: 4px solid var(--border);
            color: var(--text-primary);
            transition: transform 0.2s;
        }
        .vx-player.idle .vx-bar { transform: translateY(110%); }
        .vx-btn {
            min-width: 2.2rem;
            padding: 0.2rem 0.45rem;
            font: inherit;
            font-size: 0.8rem;
            font-weight: 900;
            color: var(--text-primary);
            background: var(--button-secondary-bg);
            border: 3px solid var(--border);
            cursor: pointer;
        }
        .vx-btn:hover, .vx-btn.on { background: var(--bg-primary); }
        .vx-btn:focus-visible { outline: 3px solid var(--button-bg); outline-offset: 1px; }
        .vx-time { font-family: monospace; font-weight: 800; font-size: 0.8rem; white-space: nowrap; }
        .vx-seek { position: relative; flex: 1; height: 1.4rem; cursor: pointer; }
        .vx-rail {
            position: absolute;
            left: 0;
            right: 0;
            top: 50%;
            height: 0.6rem;
            transform: translateY(-50%);
            background: var(--bg-secondary);
            border: 3px solid var(--border);
            overflow: hidden;
        }
        .vx-loaded, .vx-played { position: absolute; top: 0; bottom: 0; left: 0; width: 0; }
        .vx-loaded { background: var(--text-secondary); opacity: 0.35; }
        .vx-played { background: var(--button-bg); }
        .vx-hover-time {
            position: absolute;
            bottom: 140%;
            transform: translateX(-50%);
            display: none;
            padding: 0.1rem 0.35rem;
            font-family: monospace;
            font-size: 0.75rem;
            font-weight: 800;
            background: var(--bg-primary);
            border: 2px solid var(--border);
            pointer-events: none;
        }
        .vx-seek:hover .vx-hover-time { display: block; }
        .vx-volume { width: 4.5rem; accent-color: var(--button-bg); }
        .vx-pop { position: relative; }
        .vx-menu {
            position: absolute;
            right: 0;
            bottom: calc(100% + 0.6rem);
            display: none;
            padding: 0.3rem;
            background: var(--bg-card);
            border: 3px solid var(--border);
            box-shadow: var(--shadow);
        }
        .vx-menu.open { display: block; }
        .vx-menu button {
            display: block;
            width: 100%;
            padding: 0.2rem 0.8rem;
            font: inherit;
            font-weight: 800;
            color: var(--text-primary);
            background: none;
            border: 0;
            cursor: pointer;
        }
        .vx-menu button.on { background: var(--bg-primary); }
        .vx-keys { min-width: 15rem; padding: 0.6rem 0.8rem; font-size: 0.8rem; }
        .vx-keys table { width: 100%; border-collapse: collapse; }
        .vx-keys td { padding: 0.1rem 0; }
        .vx-keys td:first-child { padding-right: 0.8rem; font-weight: 700; }
        .vx-keys kbd {
            padding: 0 0.3rem;
            font-family: monospace;
            border: 2px solid var(--border);
            background: var(--bg-secondary);
        }
        .mobile .vx-volume, .mobile .vx-keys-pop { display: none; }
`

// playerControlsHTML holds every layer drawn above #yt-player. It ranges
// over .Speeds and .Shortcuts from watchPageData.
const playerControlsHTML = `
                <div class="vx-layer vx-click" id="vx-click">
                    <button class="vx-big-play" id="vx-big-play" type="button">Play</button>
                </div>
                <div class="vx-layer vx-buffering" id="vx-buffering">LOADING</div>
                <div class="vx-layer vx-failed" id="vx-failed" role="alert"><span>&#9888;</span><span id="vx-failed-text">This video could not be played.</span></div>
                <div class="vx-layer vx-upnext" id="vx-upnext" role="dialog" aria-label="Up next">
                    <small>Up next in</small>
                    <b id="vx-upnext-count">5</b>
                    <strong id="vx-upnext-title"></strong>
                    <div class="row">
                        <button class="btn" id="vx-upnext-go" type="button">Play now</button>
                        <button class="btn btn-secondary" id="vx-upnext-stop" type="button">Cancel</button>
                    </div>
                </div>
                <div class="vx-bar" id="vx-bar">
                    <button class="vx-btn" id="vx-play" type="button" aria-label="Play">&#9654;</button>
                    <span class="vx-time" id="vx-now">0:00</span>
                    <div class="vx-seek" id="vx-seek">
                        <div class="vx-rail"><div class="vx-loaded" id="vx-loaded"></div><div class="vx-played" id="vx-played"></div></div>
                        <span class="vx-hover-time" id="vx-hover-time">0:00</span>
                    </div>
                    <span class="vx-time" id="vx-total">0:00</span>
                    <button class="vx-btn" id="vx-mute" type="button" aria-label="Mute">VOL</button>
                    <input class="vx-volume" id="vx-volume" type="range" min="0" max="100" value="100" aria-label="Volume">
                    <button class="vx-btn" id="vx-cc" type="button" aria-label="Captions" aria-pressed="false">CC</button>
                    <div class="vx-pop">
                        <button class="vx-btn" id="vx-speed" type="button" aria-label="Playback speed">1x</button>
                        <div class="vx-menu" id="vx-speed-menu">{{range .Speeds}}<button type="button" data-speed="{{.}}">{{.}}x</button>{{end}}</div>
                    </div>
                    <div class="vx-pop vx-keys-pop">
                        <button class="vx-btn" id="vx-help" type="button" aria-label="Keyboard shortcuts">?</button>
                        <div class="vx-menu vx-keys" id="vx-keys">
                            <table>{{range .Shortcuts}}<tr><td>{{.Action}}</td><td>{{range $i, $k := .Keys}}{{if $i}} {{end}}<kbd>{{$k}}</kbd>{{end}}</td></tr>{{end}}</table>
                        </div>
                    </div>
                    <button class="vx-btn" id="vx-full" type="button" aria-label="Fullscreen">FULL</button>
                </div>
`

// playerJS runs the chrome through the YouTube IFrame API. It reads the
// playerConfig object declared before it and has to run before the
// iframe_api script loads.
const playerJS = `
        var vx = (function(cfg) {
            var root = document.getElementById('player-container');
            function $(id) { return document.getElementById('vx-' + id); }
            var el = {
                click: $('click'), bigPlay: $('big-play'), buffering: $('buffering'),
                failed: $('failed'), failedText: $('failed-text'),
                upnext: $('upnext'), upnextCount: $('upnext-count'), upnextTitle: $('upnext-title'),
                play: $('play'), now: $('now'), total: $('total'),
                seek: $('seek'), loaded: $('loaded'), played: $('played'), hoverTime: $('hover-time'),
                mute: $('mute'), volume: $('volume'), cc: $('cc'),
                speed: $('speed'), speedMenu: $('speed-menu'), help: $('help'), keys: $('keys'), full: $('full')
            };
            var st = { yt: null, ready: false, playing: false, dragging: false, captions: !!cfg.subtitles, idleTimer: 0, tick: 0, countdown: 0 };
            var qualities = { high: 'hd720', medium: 'large', low: 'small' };

            function clock(sec) {
                if (!isFinite(sec) || sec < 0) sec = 0;
                sec = Math.floor(sec);
                var h = Math.floor(sec / 3600), m = Math.floor(sec % 3600 / 60), s = sec % 60;
                var mm = h ? String(m).padStart(2, '0') : String(m);
                return (h ? h + ':' : '') + mm + ':' + String(s).padStart(2, '0');
            }
            function length() { return st.ready ? st.yt.getDuration() || 0 : 0; }
            function position() { return st.ready ? st.yt.getCurrentTime() || 0 : 0; }
            function show(node, on) { node.classList.toggle('on', on); }

            function paint() {
                var total = length();
                if (!total) return;
                var pct = Math.min(100, position() / total * 100);
                el.played.style.width = pct + '%';
                el.loaded.style.width = Math.min(100, (st.yt.getVideoLoadedFraction() || 0) * 100) + '%';
                el.now.textContent = clock(position());
                el.total.textContent = clock(total);
            }
            function jump(t) {
                if (!st.ready) return;
                var total = length();
                st.yt.seekTo(Math.max(0, total ? Math.min(total, t) : t), true);
                paint();
            }
            function toggle() {
                if (!st.ready) return;
                if (st.playing) st.yt.pauseVideo(); else st.yt.playVideo();
            }

            function wake() {
                root.classList.remove('idle');
                clearTimeout(st.idleTimer);
                if (st.playing) st.idleTimer = setTimeout(function() { root.classList.add('idle'); }, 2500);
            }

            function volumeLabel() {
                if (!st.ready) return;
                var muted = st.yt.isMuted(), level = st.yt.getVolume();
                el.mute.textContent = muted || level === 0 ? 'MUTED' : 'VOL';
                el.mute.setAttribute('aria-label', muted ? 'Unmute' : 'Mute');
                el.volume.value = muted ? 0 : level;
            }
            function volume(level) {
                if (!st.ready) return;
                level = Math.max(0, Math.min(100, level));
                st.yt.setVolume(level);
                if (level === 0) st.yt.mute(); else st.yt.unMute();
                setTimeout(volumeLabel, 50);
            }
            function mute() {
                if (!st.ready) return;
                if (st.yt.isMuted()) st.yt.unMute(); else st.yt.mute();
                setTimeout(volumeLabel, 50);
            }

            function speed(rate) {
                rate = Math.max(0.25, Math.min(2, rate));
                if (st.ready) st.yt.setPlaybackRate(rate);
                el.speed.textContent = rate + 'x';
                el.speedMenu.querySelectorAll('button').forEach(function(b) {
                    b.classList.toggle('on', parseFloat(b.dataset.speed) === rate);
                });
            }

            function captions(on) {
                st.captions = on;
                el.cc.classList.toggle('on', on);
                el.cc.setAttribute('aria-pressed', on ? 'true' : 'false');
                if (!st.ready) return;
                if (on) st.yt.loadModule('captions'); else st.yt.unloadModule('captions');
            }

            function fullscreen() {
                var active = document.fullscreenElement || document.webkitFullscreenElement;
                if (active) {
                    (document.exitFullscreen || document.webkitExitFullscreen).call(document);
                } else if (root.requestFullscreen) {
                    root.requestFullscreen().catch(function() {});
                } else if (root.webkitRequestFullscreen) {
                    root.webkitRequestFullscreen();
                }
            }
            function fullscreenLabel() {
                var active = document.fullscreenElement || document.webkitFullscreenElement;
                el.full.textContent = active ? 'EXIT' : 'FULL';
            }

            function next() {
                if (cfg.nextId) window.location.href = '/watch?v=' + encodeURIComponent(cfg.nextId);
            }
            function stopCountdown() {
                clearInterval(st.countdown);
                st.countdown = 0;
                show(el.upnext, false);
            }
            function startCountdown() {
                if (!cfg.autoplay || !cfg.nextId) return;
                var left = 5;
                el.upnextTitle.textContent = cfg.nextTitle;
                el.upnextCount.textContent = left;
                show(el.upnext, true);
                clearInterval(st.countdown);
                st.countdown = setInterval(function() {
                    el.upnextCount.textContent = --left;
                    if (left <= 0) { clearInterval(st.countdown); next(); }
                }, 1000);
            }

            function seekFraction(e) {
                var box = el.seek.getBoundingClientRect();
                return Math.max(0, Math.min(1, (e.clientX - box.left) / box.width));
            }
            function seekFrom(e) { if (length()) jump(seekFraction(e) * length()); }

            el.play.addEventListener('click', toggle);
            el.bigPlay.addEventListener('click', function(e) { e.stopPropagation(); toggle(); });
            el.click.addEventListener('click', function(e) { if (e.target === el.click) toggle(); });
            el.seek.addEventListener('pointerdown', function(e) { st.dragging = true; seekFrom(e); });
            document.addEventListener('pointermove', function(e) { if (st.dragging) seekFrom(e); });
            document.addEventListener('pointerup', function() { st.dragging = false; });
            el.seek.addEventListener('mousemove', function(e) {
                if (!length()) return;
                var f = seekFraction(e);
                el.hoverTime.textContent = clock(f * length());
                el.hoverTime.style.left = f * 100 + '%';
            });
            el.mute.addEventListener('click', mute);
            el.volume.addEventListener('input', function() { volume(parseInt(el.volume.value, 10)); });
            el.cc.addEventListener('click', function() { captions(!st.captions); });
            el.speed.addEventListener('click', function(e) {
                e.stopPropagation();
                el.speedMenu.classList.toggle('open');
                el.keys.classList.remove('open');
            });
            el.speedMenu.addEventListener('click', function(e) {
                var b = e.target.closest('button[data-speed]');
                if (!b) return;
                speed(parseFloat(b.dataset.speed));
                el.speedMenu.classList.remove('open');
            });
            el.help.addEventListener('click', function(e) {
                e.stopPropagation();
                el.keys.classList.toggle('open');
                el.speedMenu.classList.remove('open');
            });
            document.addEventListener('click', function(e) {
                if (!e.target.closest('.vx-pop')) {
                    el.speedMenu.classList.remove('open');
                    el.keys.classList.remove('open');
                }
            });
            el.full.addEventListener('click', fullscreen);
            document.addEventListener('fullscreenchange', fullscreenLabel);
            document.addEventListener('webkitfullscreenchange', fullscreenLabel);
            $('upnext-go').addEventListener('click', next);
            $('upnext-stop').addEventListener('click', stopCountdown);
            root.addEventListener('mousemove', wake);
            root.addEventListener('touchstart', wake, { passive: true });

            var keys = {
                ' ': toggle, k: toggle,
                ArrowLeft: function() { jump(position() - 5); },
                ArrowRight: function() { jump(position() + 5); },
                j: function() { jump(position() - 10); },
                l: function() { jump(position() + 10); },
                ArrowUp: function() { if (st.ready) volume(st.yt.getVolume() + 10); },
                ArrowDown: function() { if (st.ready) volume(st.yt.getVolume() - 10); },
                m: mute,
                c: function() { captions(!st.captions); },
                f: fullscreen,
                n: next,
                '<': function() { if (st.ready) speed(st.yt.getPlaybackRate() - 0.25); },
                '>': function() { if (st.ready) speed(st.yt.getPlaybackRate() + 0.25); },
                '?': function() { el.keys.classList.toggle('open'); },
                Escape: stopCountdown
            };
            document.addEventListener('keydown', function(e) {
                var t = e.target;
                if (t.isContentEditable || /^(INPUT|TEXTAREA|SELECT)$/.test(t.tagName)) return;
                if (e.ctrlKey || e.metaKey || e.altKey) return;
                var key = e.key.length === 1 ? e.key.toLowerCase() : e.key;
                var action = keys[key];
                if (!action && key >= '0' && key <= '9' && length()) {
                    action = function() { jump(parseInt(key, 10) / 10 * length()); };
                }
                if (!action) return;
                e.preventDefault();
                action();
                wake();
            });

            function onReady() {
                st.ready = true;
                speed(cfg.speed);
                captions(st.captions);
                var q = qualities[cfg.quality];
                if (q && st.yt.setPlaybackQuality) st.yt.setPlaybackQuality(q);
                volumeLabel();
                paint();
                st.tick = setInterval(paint, 250);
            }
            function onState(e) {
                st.playing = e.data === YT.PlayerState.PLAYING;
                root.classList.toggle('playing', st.playing);
                show(el.buffering, e.data === YT.PlayerState.BUFFERING);
                el.play.innerHTML = st.playing ? '&#10074;&#10074;' : '&#9654;';
                el.play.setAttribute('aria-label', st.playing ? 'Pause' : 'Play');
                wake();
                if (st.playing) stopCountdown();
                if (e.data === YT.PlayerState.ENDED) startCountdown();
            }
            function onError(e) {
                show(el.buffering, false);
                el.failedText.textContent = e.data === 101 || e.data === 150
                    ? 'The owner does not allow this video to be played outside YouTube.'
                    : 'This video could not be played.';
                show(el.failed, true);
                root.classList.add('idle');
            }

            window.onYouTubeIframeAPIReady = function() {
                st.yt = new YT.Player('yt-player', {
                    videoId: cfg.videoId,
                    playerVars: {
                        autoplay: 1,
                        controls: 0,
                        disablekb: 1,
                        playsinline: 1,
                        rel: 0,
                        cc_load_policy: cfg.subtitles ? 1 : 0,
                        origin: window.location.origin
                    },
                    events: { onReady: onReady, onStateChange: onState, onError: onError }
                });
            };
            return { next: next, stopCountdown: stopCountdown };
        })(playerConfig);
`
