package render

// paginationScript splits the flow page in the browser. It measures each
// child of a .page and moves the remainder into a new .page once content
// runs past data-page-height + data-overflow-margin, or when a child carries
// data-page-break="before". Header and footer stay on the first and last
// page.
const paginationScript = `(function () {
  var container = document.querySelector('.page-container');
  if (!container) { return; }
  var height = parseInt(container.getAttribute('data-page-height'), 10) || 1123;
  var margin = parseInt(container.getAttribute('data-overflow-margin'), 10) || 0;
  var limit = height + margin;

  function splitAt(page, index) {
    var next = document.createElement('div');
    next.className = 'page';
    page.parentNode.insertBefore(next, page.nextSibling);
    var kids = Array.prototype.slice.call(page.children, index);
    for (var k = 0; k < kids.length; k++) { next.appendChild(kids[k]); }
    return next;
  }

  function paginate() {
    var page = container.querySelector('.page');
    while (page) {
      var kids = page.children;
      for (var i = 0; i < kids.length; i++) {
        var el = kids[i];
        if (el.tagName === 'HEADER' || el.tagName === 'FOOTER') { continue; }
        var forced = i > 0 && el.getAttribute('data-page-break') === 'before';
        var bottom = el.offsetTop + el.offsetHeight;
        if (forced || (i > 0 && bottom > limit)) {
          var footer = page.querySelector(':scope > footer');
          var next = splitAt(page, i);
          if (footer) { next.appendChild(footer); }
          break;
        }
      }
      page = page.nextElementSibling;
    }
  }

  window.docxeditPaginate = paginate;
  if (document.readyState === 'complete') { paginate(); }
  else { window.addEventListener('load', paginate); }
})();`
